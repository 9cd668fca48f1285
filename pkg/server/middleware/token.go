package middleware

import (
	"context"
	"net/http"
	"regexp"
)

var tokenRegex = regexp.MustCompile(`^Token token="(.+)"$`)

type tokenKey struct{}

// TokenFromContext returns the raw bearer token stored by RequireToken.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// RequireToken extracts the bearer token from the Authorization header.
// The token itself is verified by the operation that consumes it.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Authorization missing"))
			return
		}

		tokenMatches := tokenRegex.FindStringSubmatch(authHeader)
		if len(tokenMatches) != 2 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization header"))
			return
		}

		ctx := context.WithValue(r.Context(), tokenKey{}, tokenMatches[1])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
