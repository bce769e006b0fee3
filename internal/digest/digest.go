// Package digest implements content identity for the FARD value core
// (spec §4.2): CID is a SHA-256 digest of a byte string formatted as
// "sha256:<lowerhex>"; VDIG is CID applied to a value's canonical
// encoding. Grounded on the teacher's gjcs1 sha256-then-lowerhex pattern,
// generalized from file envelopes to arbitrary byte strings and values.
package digest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fard-lang/fard/internal/value"
)

// CID returns "sha256:" followed by the lowercase hex SHA-256 digest of bytes.
func CID(bytes []byte) string {
	sum := sha256.Sum256(bytes)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// VDIG returns CID(Encode(v)), the content identity of a canonical value.
func VDIG(v value.V) string {
	return CID(value.Encode(v))
}
