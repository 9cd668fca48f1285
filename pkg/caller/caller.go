// Package caller attests who is making a request. The caller id it
// returns is the user_id bound into derivation paths, so it must not be
// forgeable by the requester.
//
// Two providers are available. HeaderProvider trusts a header set by a
// fronting proxy, and only when the request comes from a trusted proxy
// address. JWTProvider takes the subject of a signed caller assertion
// verified against a JWKS.
package caller

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// AnonymousPrincipal is the id the upstream identity layer gives to
// unauthenticated callers.
const AnonymousPrincipal = "2vxsx-fae"

// ErrAnonymous is returned when no non-anonymous caller can be attested.
var ErrAnonymous = errors.New("anonymous caller not allowed")

// Provider attests the caller of a request.
type Provider interface {
	CallerID(r *http.Request) (string, error)
}

// checkID rejects empty and anonymous ids.
func checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == AnonymousPrincipal {
		return "", ErrAnonymous
	}
	return id, nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying callerID.
func NewContext(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, contextKey{}, callerID)
}

// FromContext returns the caller id stored by NewContext.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// remoteIP returns the host part of r.RemoteAddr.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
