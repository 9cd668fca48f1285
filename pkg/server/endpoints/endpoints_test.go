package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pu0238/vote-me/pkg/audit"
	"github.com/pu0238/vote-me/pkg/caller"
	"github.com/pu0238/vote-me/pkg/config"
	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/oracle"
	"github.com/pu0238/vote-me/pkg/oracle/local"
	"github.com/pu0238/vote-me/pkg/oracle/oracletest"
	"github.com/pu0238/vote-me/pkg/server"
	"github.com/pu0238/vote-me/pkg/service"
	"github.com/pu0238/vote-me/pkg/store"
	"github.com/pu0238/vote-me/pkg/store/memory"
)

// httptest.NewRequest uses this remote address.
const testProxy = "192.0.2.1"

type unhealthyStore struct {
	store.Store
}

func (unhealthyStore) CheckConnectivity(context.Context) error {
	return errors.New("connection refused")
}

func newTestServer(t *testing.T, s store.Store, o oracle.Oracle) *server.Server {
	t.Helper()
	if o == nil {
		var err error
		o, err = local.New(bytes.Repeat([]byte{5}, local.MinSeedSize), oracle.NetworkRegtest)
		require.NoError(t, err)
	}

	svc := service.New(s, o, service.Options{Audit: func(audit.Event) {}})
	provider := caller.NewHeaderProvider("", func(ip string) bool { return ip == testProxy })
	cfg := &config.VoteMeConfig{AppName: "VoteMe", Network: "regtest"}

	srv := server.NewServer(svc, s, provider, cfg, "127.0.0.1", "0")
	RegisterAll(srv)
	return srv
}

type call struct {
	method string
	path   string
	body   string
	caller string
	token  string
}

func (c call) do(srv *server.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.caller != "" {
		req.Header.Set(caller.DefaultHeader, c.caller)
	}
	if c.token != "" {
		req.Header.Set("Authorization", `Token token="`+c.token+`"`)
	}
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, srv *server.Server, username, callerID string) string {
	t.Helper()
	rec := call{method: "POST", path: "/users/" + username, body: `{"salt":"salt-` + username + `"}`, caller: callerID}.do(srv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	return rec.Body.String()
}

func TestVotingScenario(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	aliceTok := register(t, srv, "alice", "alice-principal")
	bobTok := register(t, srv, "bob", "bob-principal")

	rec := call{method: "PUT", path: "/votings/v1", body: `{"description":"desc"}`, token: aliceTok}.do(srv)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	for i := 0; i < 2; i++ {
		rec = call{method: "POST", path: "/votings/v1/votes", body: `{"vote":"Pro"}`, token: bobTok}.do(srv)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	var v model.Voting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, model.Voting{Description: "desc", Pro: 2, Cons: 0, Voted: []string{"bob", "bob"}}, v)

	rec = call{method: "GET", path: "/votings"}.do(srv)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"v1":{"description":"desc","pro":2,"cons":0,"voted":["bob","bob"]}}`, rec.Body.String())
}

func TestUsersEndpoints(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)
	register(t, srv, "alice", "p1")

	tests := []struct {
		name     string
		call     call
		wantCode int
		wantBody string
	}{
		{"salt", call{method: "GET", path: "/users/alice/salt"}, http.StatusOK, "salt-alice"},
		{"salt of unknown user", call{method: "GET", path: "/users/nobody/salt"}, http.StatusNotFound, ""},
		{"taken username", call{method: "POST", path: "/users/alice", body: `{"salt":"x"}`, caller: "p2"}, http.StatusConflict, ""},
		{"anonymous register", call{method: "POST", path: "/users/carol", body: `{"salt":"x"}`}, http.StatusUnauthorized, ""},
		{"anonymous principal", call{method: "POST", path: "/users/carol", body: `{"salt":"x"}`, caller: caller.AnonymousPrincipal}, http.StatusUnauthorized, ""},
		{"malformed body", call{method: "POST", path: "/users/carol", body: `{"salt":`, caller: "p3"}, http.StatusBadRequest, ""},
		{"missing salt", call{method: "POST", path: "/users/carol", body: `{}`, caller: "p3"}, http.StatusBadRequest, ""},
		{"login", call{method: "POST", path: "/users/alice/login", caller: "p1"}, http.StatusOK, ""},
		{"login by another caller", call{method: "POST", path: "/users/alice/login", caller: "p2"}, http.StatusForbidden, ""},
		{"login unknown user", call{method: "POST", path: "/users/nobody/login", caller: "p1"}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.call.do(srv)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestUntrustedProxyCannotSetCaller(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	req := httptest.NewRequest("POST", "/users/alice", strings.NewReader(`{"salt":"x"}`))
	req.RemoteAddr = "203.0.113.9:5000"
	req.Header.Set(caller.DefaultHeader, "p1")
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVotingsEndpoints(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)
	aliceTok := register(t, srv, "alice", "p1")
	bobTok := register(t, srv, "bob", "p2")

	tampered := aliceTok[:len(aliceTok)-1] + "0"
	if tampered == aliceTok {
		tampered = aliceTok[:len(aliceTok)-1] + "1"
	}

	tests := []struct {
		name     string
		call     call
		wantCode int
	}{
		{"create without token", call{method: "PUT", path: "/votings/v1", body: `{"description":"d"}`}, http.StatusUnauthorized},
		{"create with user token", call{method: "PUT", path: "/votings/v1", body: `{"description":"d"}`, token: bobTok}, http.StatusForbidden},
		{"create with tampered token", call{method: "PUT", path: "/votings/v1", body: `{"description":"d"}`, token: tampered}, http.StatusUnauthorized},
		{"create with garbage token", call{method: "PUT", path: "/votings/v1", body: `{"description":"d"}`, token: "garbage"}, http.StatusUnauthorized},
		{"create malformed body", call{method: "PUT", path: "/votings/v1", body: `nope`, token: aliceTok}, http.StatusBadRequest},
		{"vote on missing voting", call{method: "POST", path: "/votings/missing/votes", body: `{"vote":"Pro"}`, token: bobTok}, http.StatusNotFound},
		{"create", call{method: "PUT", path: "/votings/v1", body: `{"description":"d"}`, token: aliceTok}, http.StatusNoContent},
		{"vote with unknown choice", call{method: "POST", path: "/votings/v1/votes", body: `{"vote":"Maybe"}`, token: bobTok}, http.StatusBadRequest},
		{"vote cons", call{method: "POST", path: "/votings/v1/votes", body: `{"vote":"Cons"}`, token: bobTok}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.call.do(srv)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec := call{method: "GET", path: "/votings"}.do(srv)
	assert.JSONEq(t, `{"v1":{"description":"d","pro":0,"cons":1,"voted":["bob"]}}`, rec.Body.String())
}

func TestInvalidTokenCausesLookAlike(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)
	register(t, srv, "alice", "p1")

	rec := call{method: "POST", path: "/votings/v1/votes", body: `{"vote":"Pro"}`, token: "zz.zz"}.do(srv)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
}

func TestRegisterOracleFailure(t *testing.T) {
	o := &oracletest.Mock{}
	o.On("PublicKey", mock.Anything, mock.Anything).Return("", oracle.ErrOracle)
	s := memory.New()
	srv := newTestServer(t, s, o)

	rec := call{method: "POST", path: "/users/alice", body: `{"salt":"x"}`, caller: "p1"}.do(srv)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = call{method: "GET", path: "/users/alice/salt"}.do(srv)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(), nil)

	rec := call{method: "GET", path: "/"}.do(srv)
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "regtest", status.Network)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	down := newTestServer(t, unhealthyStore{memory.New()}, nil)
	rec = call{method: "GET", path: "/"}.do(down)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(), oracle.Metered(mustLocal(t), 10))
	register(t, srv, "alice", "p1")

	rec := call{method: "GET", path: "/metrics"}.do(srv)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voteme_oracle_calls_total")
	assert.Contains(t, rec.Body.String(), "voteme_oracle_fees_total")
}

func mustLocal(t *testing.T) *local.Oracle {
	t.Helper()
	o, err := local.New(bytes.Repeat([]byte{6}, local.MinSeedSize), oracle.NetworkRegtest)
	require.NoError(t, err)
	return o
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{store.ErrAlreadyRegistered, http.StatusConflict},
		{store.ErrVotingNotFound, http.StatusNotFound},
		{store.ErrIdentityNotFound, http.StatusNotFound},
		{service.ErrCallerMismatch, http.StatusForbidden},
		{caller.ErrAnonymous, http.StatusUnauthorized},
		{oracle.ErrOracle, http.StatusBadGateway},
		{errMalformedBody, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", store.ErrAdminPending, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
