package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pu0238/vote-me/pkg/derivation"
	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/oracle"
	"github.com/pu0238/vote-me/pkg/store"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 10 * time.Minute

// ErrInvalidToken is returned for every token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Causes of ErrInvalidToken. Each one wraps ErrInvalidToken.
var (
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrUnknownSigner  = fmt.Errorf("%w: unknown user", ErrInvalidToken)
	ErrBadSignature   = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Payload is the signed part of a token. Field order fixes the JSON key
// order.
type Payload struct {
	Username  string     `json:"username"`
	UserID    string     `json:"user_id"`
	ExpiresAt uint64     `json:"expires_at"`
	Rank      model.Role `json:"rank"`
}

// Expired reports whether the payload is no longer valid at now.
func (p Payload) Expired(now time.Time) bool {
	return p.ExpiresAt <= uint64(now.UnixNano())
}

// IdentityLookup resolves the identity that signed a token.
type IdentityLookup interface {
	Lookup(ctx context.Context, username string) (*model.Identity, error)
}

// Config configures a Service.
type Config struct {
	AppName string
	TTL     time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service issues and verifies tokens.
type Service struct {
	oracle     oracle.Oracle
	identities IdentityLookup
	appName    string
	ttl        time.Duration
	now        func() time.Time
}

// NewService returns a token service.
func NewService(o oracle.Oracle, identities IdentityLookup, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		oracle:     o,
		identities: identities,
		appName:    cfg.AppName,
		ttl:        cfg.TTL,
		now:        cfg.Now,
	}
}

// Issue signs a token for username. It does not consult the registry, so
// it can be used while the identity is still staged.
func (s *Service) Issue(ctx context.Context, username, callerID string, role model.Role) (string, error) {
	payload, err := json.Marshal(Payload{
		Username:  username,
		UserID:    callerID,
		ExpiresAt: uint64(s.now().Add(s.ttl).UnixNano()),
		Rank:      role,
	})
	if err != nil {
		return "", err
	}

	payloadHex := hex.EncodeToString(payload)
	digest := sha256.Sum256([]byte(payloadHex))

	sig, err := s.oracle.Sign(ctx, derivation.BuildPath(s.appName, username, callerID), digest)
	if err != nil {
		return "", err
	}
	return payloadHex + "." + hex.EncodeToString(sig), nil
}

// Verify checks structure, signer, signature and expiry, in that order.
// Store failures are returned as they are, not as ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, token string) (*Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformedToken
	}

	raw, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrMalformedToken
	}

	identity, err := s.identities.Lookup(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownSigner
		}
		return nil, err
	}

	// Only the lowercase form Issue produces is accepted, so every change
	// to the signature text is rejected.
	sig, err := hex.DecodeString(parts[1])
	if err != nil || hex.EncodeToString(sig) != parts[1] {
		return nil, ErrBadSignature
	}
	if !oracle.Verify(identity.PublicKey, sha256.Sum256([]byte(parts[0])), sig) {
		return nil, ErrBadSignature
	}

	if payload.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	return &payload, nil
}
