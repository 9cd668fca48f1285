package middleware

import (
	"log"
	"net/http"

	"github.com/pu0238/vote-me/pkg/caller"
)

// CallerIdentity attaches the attested caller id to the request context.
type CallerIdentity struct {
	Provider caller.Provider
}

// NewCallerIdentity returns a CallerIdentity middleware over p.
func NewCallerIdentity(p caller.Provider) *CallerIdentity {
	return &CallerIdentity{Provider: p}
}

// Middleware rejects requests without a non-anonymous caller.
func (c *CallerIdentity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := c.Provider.CallerID(r)
		if err != nil {
			log.Printf("caller identity rejected for %s: %v", r.URL.Path, err)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Caller identity missing"))
			return
		}

		next.ServeHTTP(w, r.WithContext(caller.NewContext(r.Context(), id)))
	})
}
