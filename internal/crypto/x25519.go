package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"
)

// GenerateX25519 returns a fresh Curve25519 key pair read from rnd.
// The private key is clamped per RFC 7748 by curve25519.X25519 itself; no
// extra clamping is performed here, matching the spec's "no clamping beyond
// what the underlying X25519 implementation already mandates".
func GenerateX25519(rnd io.Reader) (priv, pub CryptoKey, err error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	var sk [32]byte
	if _, err = io.ReadFull(rnd, sk[:]); err != nil {
		return CryptoKey{}, CryptoKey{}, err
	}
	pk, err := curve25519.X25519(sk[:], curve25519.Basepoint)
	if err != nil {
		return CryptoKey{}, CryptoKey{}, err
	}
	var pkArr [32]byte
	copy(pkArr[:], pk)
	return X25519SecretKey(sk), X25519PublicKey(pkArr), nil
}

// DH computes the X25519 Diffie-Hellman shared secret between priv and pub.
func DH(priv, pub CryptoKey) ([32]byte, error) {
	privBytes := priv.Bytes32()
	pubBytes := pub.Bytes32()
	secret, err := curve25519.X25519(privBytes[:], pubBytes[:])
	var out [32]byte
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	return out, nil
}
