package middleware

import (
	"net"
	"net/http"

	"github.com/pu0238/vote-me/pkg/audit"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestContext stores a request id and the client address in the
// request context for audit records. An incoming X-Request-Id is kept.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = audit.NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		ctx := audit.WithRequestID(r.Context(), id)
		ctx = audit.WithClientIP(ctx, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
