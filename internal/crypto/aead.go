package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Seal encrypts plaintext with AES-256-GCM under key (KindAESKey), binding
// additionalData as AEAD associated data. The returned slice is
// ciphertext‖tag, matching the spec's "GCM output" framing.
func Seal(key CryptoKey, nonce, additionalData, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

// Open decrypts and authenticates a Seal output, returning ErrDecryptFailed
// semantics to the caller via the underlying cipher.ErrOpen-shaped error.
func Open(key CryptoKey, nonce, additionalData, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, additionalData)
}

func newGCM(key CryptoKey) (cipher.AEAD, error) {
	if key.Kind() != KindAESKey {
		return nil, fmt.Errorf("crypto: AES-256-GCM needs an aes-key, got %s", key.Kind())
	}
	k := key.Bytes32()
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
