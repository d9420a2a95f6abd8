package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
)

// GenerateEd25519 returns a fresh Ed25519 signing key pair read from rnd.
func GenerateEd25519(rnd io.Reader) (priv, pub CryptoKey, err error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	pk, sk, err := ed25519.GenerateKey(rnd)
	if err != nil {
		return CryptoKey{}, CryptoKey{}, err
	}
	var skArr [64]byte
	var pkArr [32]byte
	copy(skArr[:], sk)
	copy(pkArr[:], pk)
	return Ed25519SecretKey(skArr), Ed25519PublicKey(pkArr), nil
}

// Sign signs msg with priv, which must be KindEd25519Secret.
func Sign(priv CryptoKey, msg []byte) []byte {
	sk := priv.Bytes64()
	return ed25519.Sign(ed25519.PrivateKey(sk[:]), msg)
}

// Verify reports whether sig is a valid Ed25519 signature over msg by pub.
func Verify(pub CryptoKey, msg, sig []byte) bool {
	pk := pub.Bytes32()
	return ed25519.Verify(ed25519.PublicKey(pk[:]), msg, sig)
}
