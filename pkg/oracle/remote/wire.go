// Package remote talks to a signing oracle over HTTP.
//
// Requests and replies are CBOR encoded with core deterministic encoding.
// The server side of the protocol is Handler, which exposes any
// oracle.Oracle under the same two endpoints the Client calls.
package remote

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/pu0238/vote-me/pkg/oracle"
)

const (
	PublicKeyEndpoint = "/ecdsa_public_key"
	SignEndpoint      = "/sign_with_ecdsa"

	ContentType     = "application/cbor"
	RequestIDHeader = "X-Request-Id"
)

type PublicKeyRequest struct {
	DerivationPath [][]byte     `cbor:"derivation_path"`
	KeyID          oracle.KeyID `cbor:"key_id"`
}

type PublicKeyReply struct {
	PublicKey []byte `cbor:"public_key"`
}

type SignRequest struct {
	MessageHash    []byte       `cbor:"message_hash"`
	DerivationPath [][]byte     `cbor:"derivation_path"`
	KeyID          oracle.KeyID `cbor:"key_id"`
	Cycles         uint64       `cbor:"cycles"`
}

type SignReply struct {
	Signature []byte `cbor:"signature"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("remote: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("remote: CBOR decoder initialization failed: " + err.Error())
	}
}
