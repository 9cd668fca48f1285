package integration

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cucumber/godog"

	"github.com/pu0238/vote-me/pkg/caller"
)

// StepsContext holds the per-scenario state
type StepsContext struct {
	tc *TestContext

	tokens       map[string]string
	lastStatus   int
	lastResponse []byte
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:     tc,
		tokens: make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})

	sc.Step(`^an empty VoteMe server$`, s.anEmptyServer)
	sc.Step(`^caller "([^"]*)" registers as "([^"]*)" with salt "([^"]*)"$`, s.callerRegisters)
	sc.Step(`^an anonymous caller registers as "([^"]*)" with salt "([^"]*)"$`, s.anonymousRegisters)
	sc.Step(`^caller "([^"]*)" logs in as "([^"]*)"$`, s.callerLogsIn)
	sc.Step(`^"([^"]*)" creates voting "([^"]*)" with description "([^"]*)"$`, s.createsVoting)
	sc.Step(`^"([^"]*)" votes "([^"]*)" on "([^"]*)"$`, s.votes)
	sc.Step(`^the response status should be (\d+)$`, s.responseStatusShouldBe)
	sc.Step(`^the token of "([^"]*)" should have rank "([^"]*)"$`, s.tokenShouldHaveRank)
	sc.Step(`^the salt of "([^"]*)" should be "([^"]*)"$`, s.saltShouldBe)
	sc.Step(`^the votings should be:$`, s.votingsShouldBe)
}

func (s *StepsContext) anEmptyServer() error {
	return s.do(http.MethodGet, "/votings", "", nil, nil)
}

func (s *StepsContext) callerRegisters(callerID, username, salt string) error {
	return s.register(username, salt, map[string]string{caller.DefaultHeader: callerID})
}

func (s *StepsContext) anonymousRegisters(username, salt string) error {
	return s.register(username, salt, nil)
}

func (s *StepsContext) register(username, salt string, headers map[string]string) error {
	body, _ := json.Marshal(map[string]string{"salt": salt})
	if err := s.do(http.MethodPost, "/users/"+url.PathEscape(username), string(body), headers, nil); err != nil {
		return err
	}
	if s.lastStatus == http.StatusCreated {
		s.tokens[username] = string(s.lastResponse)
	}
	return nil
}

func (s *StepsContext) callerLogsIn(callerID, username string) error {
	headers := map[string]string{caller.DefaultHeader: callerID}
	if err := s.do(http.MethodPost, "/users/"+url.PathEscape(username)+"/login", "", headers, nil); err != nil {
		return err
	}
	if s.lastStatus == http.StatusOK {
		s.tokens[username] = string(s.lastResponse)
	}
	return nil
}

func (s *StepsContext) createsVoting(username, name, description string) error {
	body, _ := json.Marshal(map[string]string{"description": description})
	return s.do(http.MethodPut, "/votings/"+url.PathEscape(name), string(body), nil, s.authHeader(username))
}

func (s *StepsContext) votes(username, choice, name string) error {
	body, _ := json.Marshal(map[string]string{"vote": choice})
	return s.do(http.MethodPost, "/votings/"+url.PathEscape(name)+"/votes", string(body), nil, s.authHeader(username))
}

func (s *StepsContext) responseStatusShouldBe(expected int) error {
	if s.lastStatus != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.lastStatus, string(s.lastResponse))
	}
	return nil
}

func (s *StepsContext) tokenShouldHaveRank(username, rank string) error {
	tok, ok := s.tokens[username]
	if !ok {
		return fmt.Errorf("no token for %q", username)
	}
	payloadHex, _, found := strings.Cut(tok, ".")
	if !found {
		return fmt.Errorf("token for %q is malformed: %s", username, tok)
	}
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return fmt.Errorf("decode token payload: %w", err)
	}
	var claims struct {
		Rank string `json:"rank"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return fmt.Errorf("parse token payload: %w", err)
	}
	if claims.Rank != rank {
		return fmt.Errorf("expected rank %q, got %q", rank, claims.Rank)
	}
	return nil
}

func (s *StepsContext) saltShouldBe(username, salt string) error {
	if err := s.do(http.MethodGet, "/users/"+url.PathEscape(username)+"/salt", "", nil, nil); err != nil {
		return err
	}
	if s.lastStatus != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d: %s", s.lastStatus, string(s.lastResponse))
	}
	if got := string(s.lastResponse); got != salt {
		return fmt.Errorf("expected salt %q, got %q", salt, got)
	}
	return nil
}

func (s *StepsContext) votingsShouldBe(doc *godog.DocString) error {
	if err := s.do(http.MethodGet, "/votings", "", nil, nil); err != nil {
		return err
	}
	if s.lastStatus != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", s.lastStatus)
	}

	var want, got interface{}
	if err := json.Unmarshal([]byte(doc.Content), &want); err != nil {
		return fmt.Errorf("expected votings are not JSON: %w", err)
	}
	if err := json.Unmarshal(s.lastResponse, &got); err != nil {
		return fmt.Errorf("votings response is not JSON: %w", err)
	}

	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if !bytes.Equal(wantJSON, gotJSON) {
		return fmt.Errorf("votings mismatch:\nexpected: %s\nactual:   %s", wantJSON, gotJSON)
	}
	return nil
}

func (s *StepsContext) authHeader(username string) map[string]string {
	tok, ok := s.tokens[username]
	if !ok {
		return nil
	}
	return map[string]string{"Authorization": fmt.Sprintf(`Token token="%s"`, tok)}
}

func (s *StepsContext) do(method, path, body string, headers ...map[string]string) error {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.lastResponse, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.lastStatus = resp.StatusCode
	return nil
}
