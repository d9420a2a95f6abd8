package crypto

import "fmt"

// KeyKind tags the concrete shape behind a CryptoKey.
type KeyKind int

const (
	KindX25519Public KeyKind = iota
	KindX25519Secret
	KindEd25519Public
	KindEd25519Secret
	KindHMACKey
	KindAESKey
)

func (k KeyKind) String() string {
	switch k {
	case KindX25519Public:
		return "x25519-public"
	case KindX25519Secret:
		return "x25519-secret"
	case KindEd25519Public:
		return "ed25519-public"
	case KindEd25519Secret:
		return "ed25519-secret"
	case KindHMACKey:
		return "hmac-key"
	case KindAESKey:
		return "aes-key"
	default:
		return "unknown"
	}
}

// CryptoKey is a tagged, fixed-size key value. It replaces the raw-bytes
// escape hatch a reflective key model would otherwise allow: code that wants
// an AES key must pattern-match KindAESKey rather than trust a slice length.
type CryptoKey struct {
	kind KeyKind
	x25  [32]byte
	ed   [64]byte // Ed25519Secret uses the full seed+public layout; others use x25.
}

// Kind reports which concrete key this value carries.
func (k CryptoKey) Kind() KeyKind { return k.kind }

// X25519PublicKey builds a CryptoKey tagged KindX25519Public.
func X25519PublicKey(b [32]byte) CryptoKey { return CryptoKey{kind: KindX25519Public, x25: b} }

// X25519SecretKey builds a CryptoKey tagged KindX25519Secret.
func X25519SecretKey(b [32]byte) CryptoKey { return CryptoKey{kind: KindX25519Secret, x25: b} }

// Ed25519PublicKey builds a CryptoKey tagged KindEd25519Public.
func Ed25519PublicKey(b [32]byte) CryptoKey { return CryptoKey{kind: KindEd25519Public, x25: b} }

// Ed25519SecretKey builds a CryptoKey tagged KindEd25519Secret.
func Ed25519SecretKey(b [64]byte) CryptoKey { return CryptoKey{kind: KindEd25519Secret, ed: b} }

// HMACKeyFrom builds a CryptoKey tagged KindHMACKey.
func HMACKeyFrom(b [32]byte) CryptoKey { return CryptoKey{kind: KindHMACKey, x25: b} }

// AESKeyFrom builds a CryptoKey tagged KindAESKey.
func AESKeyFrom(b [32]byte) CryptoKey { return CryptoKey{kind: KindAESKey, x25: b} }

// Bytes32 returns the raw 32-byte form for 32-byte key kinds, panicking on a
// kind mismatch so misuse fails loudly at the call site instead of silently
// reinterpreting bytes.
func (k CryptoKey) Bytes32() [32]byte {
	switch k.kind {
	case KindX25519Public, KindX25519Secret, KindEd25519Public, KindHMACKey, KindAESKey:
		return k.x25
	default:
		panic(fmt.Sprintf("crypto: Bytes32 called on %s key", k.kind))
	}
}

// Bytes64 returns the raw 64-byte form for Ed25519Secret, panicking otherwise.
func (k CryptoKey) Bytes64() [64]byte {
	if k.kind != KindEd25519Secret {
		panic(fmt.Sprintf("crypto: Bytes64 called on %s key", k.kind))
	}
	return k.ed
}

// Slice is a convenience accessor returning the key's bytes as a slice,
// dispatching on kind the same way Bytes32/Bytes64 do.
func (k CryptoKey) Slice() []byte {
	if k.kind == KindEd25519Secret {
		b := k.ed
		return b[:]
	}
	b := k.x25
	return b[:]
}
