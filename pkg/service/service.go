// Package service composes the registry, token service and ledger into
// the operations exposed to clients. Every operation takes the caller id
// attested by a caller.Provider from the request context.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pu0238/vote-me/pkg/audit"
	"github.com/pu0238/vote-me/pkg/caller"
	"github.com/pu0238/vote-me/pkg/derivation"
	"github.com/pu0238/vote-me/pkg/ledger"
	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/oracle"
	"github.com/pu0238/vote-me/pkg/registry"
	"github.com/pu0238/vote-me/pkg/store"
	"github.com/pu0238/vote-me/pkg/token"
)

// DefaultAppName is the first derivation path component.
const DefaultAppName = "VoteMe"

// ErrCallerMismatch is returned when a caller logs in to an identity
// registered by another caller.
var ErrCallerMismatch = fmt.Errorf("%w: caller does not own this identity", ledger.ErrUnauthorized)

// Options configures a Service.
type Options struct {
	AppName  string
	TokenTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// Audit receives one event per operation. Defaults to audit.Log.
	Audit func(audit.Event)
}

// Service implements the exposed operations.
type Service struct {
	appName  string
	oracle   oracle.Oracle
	registry *registry.Registry
	tokens   *token.Service
	ledger   *ledger.Ledger
	audit    func(audit.Event)
}

// New wires a Service over s and o.
func New(s store.Store, o oracle.Oracle, opts Options) *Service {
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	if opts.Audit == nil {
		opts.Audit = audit.Log
	}

	reg := registry.New(s)
	tokens := token.NewService(o, reg, token.Config{
		AppName: opts.AppName,
		TTL:     opts.TokenTTL,
		Now:     opts.Now,
	})

	return &Service{
		appName:  opts.AppName,
		oracle:   o,
		registry: reg,
		tokens:   tokens,
		ledger:   ledger.New(s, tokens),
		audit:    opts.Audit,
	}
}

// Tokens returns the token service used to verify bearer tokens.
func (s *Service) Tokens() *token.Service {
	return s.tokens
}

func callerFrom(ctx context.Context) (string, error) {
	id, ok := caller.FromContext(ctx)
	if !ok || id == caller.AnonymousPrincipal {
		return "", caller.ErrAnonymous
	}
	return id, nil
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Register creates the identity username for the calling principal and
// returns its first token. The first identity ever registered is Admin.
// On any failure the username stays free.
func (s *Service) Register(ctx context.Context, username, salt string) (tok string, err error) {
	event := audit.RegisterEvent{Username: username}
	defer func() {
		event.Success = err == nil
		event.ErrorMessage = errorMessage(err)
		s.audit(event)
	}()

	callerID, err := callerFrom(ctx)
	if err != nil {
		return "", err
	}
	event.Request = audit.Request{CallerID: callerID}.FromContext(ctx)

	registered, err := s.registry.IsRegistered(ctx, username)
	if err != nil {
		return "", err
	}
	if registered {
		return "", store.ErrAlreadyRegistered
	}

	publicKey, err := s.oracle.PublicKey(ctx, derivation.BuildPath(s.appName, username, callerID))
	if err != nil {
		return "", err
	}

	res, err := s.registry.Register(ctx, username, salt, callerID, publicKey)
	if err != nil {
		return "", err
	}
	event.Role = res.Role().String()

	tok, err = s.tokens.Issue(ctx, username, callerID, res.Role())
	if err == nil {
		err = res.Commit(ctx)
	}
	if err != nil {
		if derr := res.Discard(context.WithoutCancel(ctx)); derr != nil {
			err = errors.Join(err, fmt.Errorf("discard %s: %w", username, derr))
		}
		return "", err
	}
	return tok, nil
}

// Salt returns the salt stored with username. No caller is needed.
func (s *Service) Salt(ctx context.Context, username string) (string, error) {
	return s.registry.SaltOf(ctx, username)
}

// Login issues a fresh token for username. Only the caller that
// registered the identity may log in to it.
func (s *Service) Login(ctx context.Context, username string) (tok string, err error) {
	event := audit.LoginEvent{Username: username}
	defer func() {
		event.Success = err == nil
		event.ErrorMessage = errorMessage(err)
		s.audit(event)
	}()

	callerID, err := callerFrom(ctx)
	if err != nil {
		return "", err
	}
	event.Request = audit.Request{CallerID: callerID}.FromContext(ctx)

	identity, err := s.registry.Lookup(ctx, username)
	if err != nil {
		return "", err
	}
	if identity.CallerID != callerID {
		return "", ErrCallerMismatch
	}
	return s.tokens.Issue(ctx, username, callerID, identity.Role)
}

// CreateVoting stores an empty voting under name. tok must carry the
// Admin role.
func (s *Service) CreateVoting(ctx context.Context, tok, name, description string) (err error) {
	event := audit.VotingCreateEvent{Voting: name, Request: audit.Request{}.FromContext(ctx)}
	defer func() {
		event.Success = err == nil
		event.ErrorMessage = errorMessage(err)
		s.audit(event)
	}()

	payload, err := s.ledger.Create(ctx, tok, name, description)
	if payload != nil {
		event.Username = payload.Username
		event.CallerID = payload.UserID
	}
	return err
}

// CastVote records a vote by the token's user.
func (s *Service) CastVote(ctx context.Context, tok, name string, choice model.Choice) (v *model.Voting, err error) {
	event := audit.VoteEvent{Voting: name, Choice: choice.String(), Request: audit.Request{}.FromContext(ctx)}
	defer func() {
		event.Success = err == nil
		event.ErrorMessage = errorMessage(err)
		s.audit(event)
	}()

	v, payload, err := s.ledger.CastVote(ctx, tok, name, choice)
	if payload != nil {
		event.Username = payload.Username
		event.CallerID = payload.UserID
	}
	return v, err
}

// ListVotings returns every voting.
func (s *Service) ListVotings(ctx context.Context) (map[string]model.Voting, error) {
	return s.ledger.List(ctx)
}
