package caller

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key"

func TestHeaderProvider(t *testing.T) {
	trusted := func(ip string) bool { return ip == "10.0.0.1" }
	p := NewHeaderProvider("", trusted)

	tests := []struct {
		name    string
		remote  string
		header  string
		want    string
		wantErr bool
	}{
		{"trusted proxy", "10.0.0.1:5555", "caller-1", "caller-1", false},
		{"untrusted source", "192.168.1.9:5555", "caller-1", "", true},
		{"missing header", "10.0.0.1:5555", "", "", true},
		{"anonymous principal", "10.0.0.1:5555", AnonymousPrincipal, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/users/alice", nil)
			r.RemoteAddr = tt.remote
			if tt.header != "" {
				r.Header.Set(DefaultHeader, tt.header)
			}

			got, err := p.CallerID(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAnonymous)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContext(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := FromContext(r.Context())
	assert.False(t, ok)

	ctx := NewContext(r.Context(), "caller-1")
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "caller-1", id)
}

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func buildJWKSetJSON(pub *rsa.PublicKey) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": testKeyID,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

func signAssertion(t *testing.T, key *rsa.PrivateKey, sub, iss string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    iss,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJWTProvider(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey))
	require.NoError(t, err)

	const issuer = "https://identity.test"
	p := NewJWTProviderWithKeyfunc(kf, issuer)
	later := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		assertion string
		want      string
		wantErr   bool
	}{
		{"valid assertion", signAssertion(t, key, "principal-1", issuer, later), "principal-1", false},
		{"missing assertion", "", "", true},
		{"expired", signAssertion(t, key, "principal-1", issuer, time.Now().Add(-time.Hour)), "", true},
		{"wrong issuer", signAssertion(t, key, "principal-1", "https://evil.test", later), "", true},
		{"unknown key", signAssertion(t, otherKey, "principal-1", issuer, later), "", true},
		{"anonymous subject", signAssertion(t, key, AnonymousPrincipal, issuer, later), "", true},
		{"garbage", "not.a.jwt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/users/alice", nil)
			if tt.assertion != "" {
				r.Header.Set(AssertionHeader, tt.assertion)
			}

			got, err := p.CallerID(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAnonymous)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
