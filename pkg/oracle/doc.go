// Package oracle defines the signing oracle that holds every identity key.
//
// The core never sees a private key. It asks the oracle for the public key
// at a derivation path and for signatures over 32 byte digests, then checks
// those signatures locally with Verify.
//
// Two implementations are provided:
//
//   - oracle/local derives secp256k1 keys in process from a master seed
//   - oracle/remote calls an oracle over HTTP using a CBOR protocol
//
// Every failure returned by an implementation wraps ErrOracle. Calls are
// never retried.
package oracle
