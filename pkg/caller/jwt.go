package caller

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// AssertionHeader carries the caller assertion JWT.
const AssertionHeader = "X-Caller-Assertion"

// JWTProvider takes the caller id from the subject of a signed JWT.
type JWTProvider struct {
	jwks   keyfunc.Keyfunc
	issuer string
}

// NewJWTProvider fetches signing keys from jwksURL and refreshes them in
// the background. The first fetch may fail; keys are retried on refresh.
func NewJWTProvider(jwksURL, issuer string, timeout, refresh time.Duration) (*JWTProvider, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: timeout},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refresh,
		RefreshErrorHandler: func(_ context.Context, err error) {
			log.Printf("caller: JWKS refresh from %s failed: %v", jwksURL, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("create keyfunc: %w", err)
	}
	return NewJWTProviderWithKeyfunc(k, issuer), nil
}

// NewJWTProviderWithKeyfunc returns a provider using kf for key lookup.
func NewJWTProviderWithKeyfunc(kf keyfunc.Keyfunc, issuer string) *JWTProvider {
	return &JWTProvider{jwks: kf, issuer: issuer}
}

func (p *JWTProvider) CallerID(r *http.Request) (string, error) {
	raw := r.Header.Get(AssertionHeader)
	if raw == "" {
		return "", ErrAnonymous
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, p.jwks.Keyfunc, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnonymous, err)
	}
	return checkID(claims.Subject)
}
