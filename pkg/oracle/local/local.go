// Package local implements the signing oracle in process. Keys are derived
// from a master seed, the network key id and the derivation path with
// HKDF-SHA256, so the same inputs always yield the same key.
package local

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"github.com/pu0238/vote-me/pkg/derivation"
	"github.com/pu0238/vote-me/pkg/oracle"
)

// MinSeedSize is the smallest accepted master seed.
const MinSeedSize = 32

const maxDeriveAttempts = 8

var _ oracle.Oracle = (*Oracle)(nil)

// Oracle derives one secp256k1 key per derivation path.
type Oracle struct {
	seed  []byte
	keyID oracle.KeyID
}

// New returns an oracle for the key id of network.
func New(seed []byte, network oracle.Network) (*Oracle, error) {
	if len(seed) < MinSeedSize {
		return nil, fmt.Errorf("oracle seed must be at least %d bytes, got %d", MinSeedSize, len(seed))
	}
	s := make([]byte, len(seed))
	copy(s, seed)
	return &Oracle{seed: s, keyID: network.KeyID()}, nil
}

// KeyID returns the master key this oracle signs with.
func (o *Oracle) KeyID() oracle.KeyID {
	return o.keyID
}

func (o *Oracle) PublicKey(ctx context.Context, path derivation.Path) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", oracle.ErrOracle, err)
	}
	key, err := o.derive(path)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey)), nil
}

func (o *Oracle) Sign(ctx context.Context, path derivation.Path, digest [32]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", oracle.ErrOracle, err)
	}
	key, err := o.derive(path)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oracle.ErrOracle, err)
	}
	// drop the recovery id
	return sig[:64], nil
}

// derive reads 32 byte candidates from the HKDF stream until one is a
// valid secp256k1 scalar.
func (o *Oracle) derive(path derivation.Path) (*ecdsa.PrivateKey, error) {
	info := append([]byte(o.keyID.Curve+"/"+o.keyID.Name+"/"), path.Encode()...)
	r := hkdf.New(sha256.New, o.seed, []byte("voteme-oracle"), info)

	candidate := make([]byte, 32)
	for i := 0; i < maxDeriveAttempts; i++ {
		if _, err := io.ReadFull(r, candidate); err != nil {
			return nil, fmt.Errorf("%w: %v", oracle.ErrOracle, err)
		}
		if key, err := crypto.ToECDSA(candidate); err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", oracle.ErrOracle, errors.New("no valid key derived"))
}
