// Package derivation builds the key derivation paths that bind a
// (username, caller id) pair to a signing key held by the oracle.
package derivation

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// AuthKeyPurpose is the fixed second component of every path.
const AuthKeyPurpose = "AuthKey"

// Path is an ordered list of byte strings. Two paths are equal only when
// every component is equal.
type Path [][]byte

// BuildPath returns [appName, "AuthKey", username, callerID].
func BuildPath(appName, username, callerID string) Path {
	return Path{
		[]byte(appName),
		[]byte(AuthKeyPurpose),
		[]byte(username),
		[]byte(callerID),
	}
}

// Encode returns an unambiguous byte encoding of the path: each component
// is prefixed with its length as a uvarint.
func (p Path) Encode() []byte {
	var out []byte
	for _, c := range p {
		out = binary.AppendUvarint(out, uint64(len(c)))
		out = append(out, c...)
	}
	return out
}

// Equal reports whether p and o have identical components.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if string(p[i]) != string(o[i]) {
			return false
		}
	}
	return true
}

// String renders the path as slash separated hex components, for logs.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = hex.EncodeToString(c)
	}
	return strings.Join(parts, "/")
}
