// Package crypto wraps the fixed-size cryptographic primitives the ratchet
// protocol is built on: X25519, Ed25519, HKDF-SHA-256, HMAC-SHA-256 and
// AES-256-GCM. Keys are carried as a tagged CryptoKey variant rather than a
// bare []byte so algorithm dispatch is an exhaustive switch instead of a
// length check.
package crypto
