package oracle

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// Verify checks a 64 byte r||s signature over digest against a hex encoded
// secp256k1 public key, compressed or not. High-S signatures are rejected.
func Verify(publicKeyHex string, digest [32]byte, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	return crypto.VerifySignature(pub, digest[:], signature)
}
