// Package opaque derives public identifiers from persisted rows.
//
// A Hasher computes an HMAC-SHA256, keyed with a server-side salt, over the JSON
// encoding of a value and returns the first 16 bytes as lowercase hex. Callers
// pass a struct with a fixed field set (never a map with unstable content) so
// the encoding, and therefore the identifier, is a pure function of the row.
package opaque

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// MinSaltLength is the shortest accepted salt.
const MinSaltLength = 16

const sumBytes = 16

var (
	ErrShortSalt = errors.New("opaque: salt must be at least 16 bytes")
	ErrEncode    = errors.New("opaque: failed to encode value")
)

// Hasher is safe for concurrent use.
type Hasher struct {
	key []byte
}

// New returns a Hasher keyed with salt.
func New(salt string) (*Hasher, error) {
	if len(salt) < MinSaltLength {
		return nil, ErrShortSalt
	}
	return &Hasher{key: []byte(salt)}, nil
}

// Sum encodes v as JSON and returns its keyed digest.
func (h *Hasher) Sum(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}
	return h.SumBytes(b), nil
}

// SumBytes returns the keyed digest of an already canonical encoding.
func (h *Hasher) SumBytes(b []byte) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write(b)
	return hex.EncodeToString(mac.Sum(nil)[:sumBytes])
}
