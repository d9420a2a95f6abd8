package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSum256 returns HMAC-SHA-256(key, data).
func HMACSum256(key, data []byte) [32]byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ConstantTimeEqual reports whether a and b are byte-equal, taking time
// independent of where (or whether) they first differ.
func ConstantTimeEqual(a, b []byte) bool {
	return hmac.Equal(a, b)
}
