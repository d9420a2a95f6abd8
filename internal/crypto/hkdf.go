package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFBlocks runs RFC 5869 HKDF-SHA-256 over ikm and returns n independent
// 32-byte blocks. A nil salt is treated as a 32-byte zero vector, per §4.1.
func HKDFBlocks(ikm, salt, info []byte, n int) [][32]byte {
	if salt == nil {
		salt = make([]byte, sha256.Size)
	}
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([][32]byte, n)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, out[i][:]); err != nil {
			// hkdf.New's Reader only errors once the RFC 5869 output-length
			// bound (255*HashLen) is exceeded; n is always small and fixed
			// by the protocol, so this is unreachable in practice.
			panic("crypto: hkdf expand exhausted: " + err.Error())
		}
	}
	return out
}
