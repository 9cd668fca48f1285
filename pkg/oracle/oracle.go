package oracle

import (
	"context"
	"errors"

	"github.com/pu0238/vote-me/pkg/derivation"
)

// ErrOracle is returned when the oracle could not serve a request.
var ErrOracle = errors.New("signing oracle failure")

// CurveSecp256k1 is the only curve the oracle supports.
const CurveSecp256k1 = "secp256k1"

// KeyID names the master key the oracle derives from.
type KeyID struct {
	Curve string `json:"curve" cbor:"curve"`
	Name  string `json:"name" cbor:"name"`
}

// Oracle is the remote signing capability. Both methods block until the
// oracle replies or ctx is done.
type Oracle interface {
	// PublicKey returns the hex encoded SEC1 compressed public key at path.
	PublicKey(ctx context.Context, path derivation.Path) (string, error)
	// Sign returns a 64 byte r||s signature over digest by the key at path.
	Sign(ctx context.Context, path derivation.Path, digest [32]byte) ([]byte, error)
}
