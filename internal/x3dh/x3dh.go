package x3dh

import (
	"fmt"

	"duskwire/internal/crypto"
	"duskwire/internal/engine"
	"duskwire/internal/errs"
	"duskwire/internal/identity"
	"duskwire/internal/memzero"
	"duskwire/internal/wire"
)

// f is the 32-byte constant of 0xFF bytes prepended to the DH outputs before
// derivation, so the shared secret is never all-zero even when a party's
// one-time pre-key is absent (spec §4.4).
var f = func() [32]byte {
	var b [32]byte
	for i := range b {
		b[i] = 0xFF
	}
	return b
}()

const info = "Signal_X3DH"

// InitiateResult carries the material an initiator needs both to derive its
// side of the root key and to build the PreKeyMessage it sends the
// responder.
type InitiateResult struct {
	RootKey            [32]byte
	EphemeralPriv      crypto.CryptoKey
	EphemeralPub       crypto.CryptoKey
	UsedSignedPreKeyID uint32
	UsedPreKeyID       *uint32
}

// Initiate runs the A-side of X3DH against a fetched PreKeyBundle: it
// verifies the bundle's identity self-signature and signed pre-key
// signature, generates a fresh ephemeral key, and derives the root key from
// DH1..DH4 (spec §4.4, §9's resolved Open Question on signature scope).
func Initiate(eng *engine.CryptoEngine, ours *identity.Local, bundle wire.PreKeyBundle) (InitiateResult, error) {
	if err := identity.VerifyBundle(bundle); err != nil {
		return InitiateResult{}, err
	}

	ephPriv, ephPub, err := crypto.GenerateX25519(eng.Rand)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("x3dh: generate ephemeral key: %w", err)
	}

	theirIdentityExchange := crypto.X25519PublicKey(bundle.Identity.ExchangeKey)
	theirSignedPreKey := crypto.X25519PublicKey(bundle.PreKeySigned.Key)

	dh1, err := crypto.DH(ours.ExchangePriv, theirSignedPreKey)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("x3dh: DH1: %w", err)
	}
	dh2, err := crypto.DH(ephPriv, theirIdentityExchange)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("x3dh: DH2: %w", err)
	}
	dh3, err := crypto.DH(ephPriv, theirSignedPreKey)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("x3dh: DH3: %w", err)
	}

	km := make([]byte, 0, 32*5)
	km = append(km, f[:]...)
	km = append(km, dh1[:]...)
	km = append(km, dh2[:]...)
	km = append(km, dh3[:]...)

	var usedPreKeyID *uint32
	if bundle.PreKey != nil {
		theirOneTimePreKey := crypto.X25519PublicKey(bundle.PreKey.Key)
		dh4, err := crypto.DH(ephPriv, theirOneTimePreKey)
		if err != nil {
			return InitiateResult{}, fmt.Errorf("x3dh: DH4: %w", err)
		}
		km = append(km, dh4[:]...)
		defer memzero.Zero(dh4[:])
		id := bundle.PreKey.ID
		usedPreKeyID = &id
	}
	defer memzero.Zero(dh1[:])
	defer memzero.Zero(dh2[:])
	defer memzero.Zero(dh3[:])
	defer memzero.Zero(km)

	root := crypto.HKDFBlocks(km, nil, []byte(info), 1)[0]

	return InitiateResult{
		RootKey:            root,
		EphemeralPriv:      ephPriv,
		EphemeralPub:       ephPub,
		UsedSignedPreKeyID: bundle.PreKeySigned.ID,
		UsedPreKeyID:       usedPreKeyID,
	}, nil
}

// Complete runs the B-side of X3DH against an inbound PreKeyMessage: it
// verifies the initiator's identity self-signature, looks up (and, for the
// one-time pre-key, consumes) the cited local pre-keys, and derives the same
// root key Initiate produced.
func Complete(ours *identity.Local, pkm wire.PreKeyMessage) ([32]byte, error) {
	var zero [32]byte
	if err := identity.VerifyRemoteIdentity(pkm.Identity); err != nil {
		return zero, err
	}

	spkPriv, _, _, ok := ours.SignedPreKey(pkm.PreKeySignedID)
	if !ok {
		return zero, fmt.Errorf("x3dh: signed pre-key %d: %w", pkm.PreKeySignedID, errs.ErrUnknownPreKey)
	}

	theirIdentityExchange := crypto.X25519PublicKey(pkm.Identity.ExchangeKey)
	theirBaseKey := crypto.X25519PublicKey(pkm.BaseKey)

	dh1, err := crypto.DH(spkPriv, theirIdentityExchange)
	if err != nil {
		return zero, fmt.Errorf("x3dh: DH1: %w", err)
	}
	dh2, err := crypto.DH(ours.ExchangePriv, theirBaseKey)
	if err != nil {
		return zero, fmt.Errorf("x3dh: DH2: %w", err)
	}
	dh3, err := crypto.DH(spkPriv, theirBaseKey)
	if err != nil {
		return zero, fmt.Errorf("x3dh: DH3: %w", err)
	}

	km := make([]byte, 0, 32*5)
	km = append(km, f[:]...)
	km = append(km, dh1[:]...)
	km = append(km, dh2[:]...)
	km = append(km, dh3[:]...)

	if pkm.PreKeyID != nil {
		opkPriv, err := ours.ConsumeOneTimePreKey(*pkm.PreKeyID)
		if err != nil {
			return zero, err
		}
		dh4, err := crypto.DH(opkPriv, theirBaseKey)
		if err != nil {
			return zero, fmt.Errorf("x3dh: DH4: %w", err)
		}
		km = append(km, dh4[:]...)
		defer memzero.Zero(dh4[:])
	}
	defer memzero.Zero(dh1[:])
	defer memzero.Zero(dh2[:])
	defer memzero.Zero(dh3[:])
	defer memzero.Zero(km)

	root := crypto.HKDFBlocks(km, nil, []byte(info), 1)[0]
	return root, nil
}
