package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// opaqueSize is the raw entropy carried by a refresh token value. 32 bytes
// keeps the value comfortably above the 256-bit floor required for
// unguessable credentials.
const opaqueSize = 32

// ErrInvalidOpaque is returned when a presented refresh value does not decode
// to the expected size.
var ErrInvalidOpaque = errors.New("invalid opaque token")

// NewOpaque generates a fresh opaque refresh value: base64url without
// padding, no embedded structure. Clients must treat it as a black box.
func NewOpaque() (string, error) {
	var raw [opaqueSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// CheckOpaque validates the shape of a presented refresh value without
// touching any store. It rejects values that cannot possibly have been
// issued, which keeps malformed input off the persistence path.
func CheckOpaque(value string) error {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return ErrInvalidOpaque
	}
	if len(raw) != opaqueSize {
		return ErrInvalidOpaque
	}
	return nil
}

// Fingerprint returns a stable SHA-256 digest of a token value, used when a
// token must be referenced in logs or audit trails without exposing the
// value itself.
func Fingerprint(value string) [32]byte {
	return sha256.Sum256([]byte(value))
}
