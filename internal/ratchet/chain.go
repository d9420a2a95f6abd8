package ratchet

import "duskwire/internal/crypto"

const messageKeysInfo = "WhisperMessageKeys"

// MessageKeys is the triple a chain advance yields: the AES-256-GCM key, the
// HMAC-SHA-256 key used by MessageSigned, and the 12-byte AEAD nonce
// (spec §4.5).
type MessageKeys struct {
	AESKey  crypto.CryptoKey
	HMACKey crypto.CryptoKey
	Nonce   [12]byte
}

func deriveMessageKeys(mkRaw [32]byte) MessageKeys {
	blocks := crypto.HKDFBlocks(mkRaw[:], nil, []byte(messageKeysInfo), 3)
	var nonce [12]byte
	copy(nonce[:], blocks[2][:12])
	return MessageKeys{
		AESKey:  crypto.AESKeyFrom(blocks[0]),
		HMACKey: crypto.HMACKeyFrom(blocks[1]),
		Nonce:   nonce,
	}
}

// Chain is one side of a symmetric ratchet: a chain key that advances
// one-way via HMAC, yielding a fresh MessageKeys at every step.
type Chain struct {
	key     [32]byte
	counter uint32
}

// NewChain starts a chain at counter 0 with the given chain key.
func NewChain(ck [32]byte) *Chain {
	return &Chain{key: ck}
}

// RestoreChain rebuilds a chain at a known key and counter, for session
// persistence (spec §6).
func RestoreChain(key [32]byte, counter uint32) *Chain {
	return &Chain{key: key, counter: counter}
}

// Counter reports how many times Advance has been called.
func (c *Chain) Counter() uint32 { return c.counter }

// Key returns the current chain key, for session persistence.
func (c *Chain) Key() [32]byte { return c.key }

// Advance steps the chain once: CK' = HMAC(CK, 0x02), MK_raw = HMAC(CK, 0x01),
// expanding MK_raw into the message keys for the new counter value.
func (c *Chain) Advance() MessageKeys {
	mkRaw := crypto.HMACSum256(c.key[:], []byte{0x01})
	ckNext := crypto.HMACSum256(c.key[:], []byte{0x02})
	c.key = ckNext
	c.counter++
	return deriveMessageKeys(mkRaw)
}
