package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Thumbprint returns the hex-encoded SHA-256 digest of a 32-byte public key,
// used throughout the ratchet as the stepId / cache key (§4.1, §GLOSSARY).
func Thumbprint(pub CryptoKey) string {
	b := pub.Bytes32()
	sum := sha256.Sum256(b[:])
	return hex.EncodeToString(sum[:])
}

// SHA256 hashes arbitrary bytes, exposed for CryptoEngine implementations.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}
