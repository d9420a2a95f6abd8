package identity

import (
	"fmt"

	"duskwire/internal/crypto"
	"duskwire/internal/errs"
	"duskwire/internal/wire"
)

// Bundle assembles the PreKeyBundle this identity offers to a directory: its
// own Identity record, the current signed pre-key (with its signature), and
// one one-time pre-key if any remain (spec §4.3, §3's PreKeyBundle).
func (id *Local) Bundle() (wire.PreKeyBundle, error) {
	spkID := id.CurrentSignedPreKeyID()
	_, spkPub, spkSig, ok := id.SignedPreKey(spkID)
	if !ok {
		return wire.PreKeyBundle{}, fmt.Errorf("identity: no signed pre-key available: %w", errs.ErrMalformedMessage)
	}

	b := wire.PreKeyBundle{
		RegistrationID: id.RegistrationID,
		Identity:       id.WireIdentity(),
		PreKeySigned: wire.PreKeySigned{
			ID:        spkID,
			Key:       spkPub.Bytes32(),
			Signature: spkSig,
		},
	}
	if opkID, opkPub, ok := id.PeekOneTimePreKey(); ok {
		key := opkPub.Bytes32()
		b.PreKey = &wire.PreKey{ID: opkID, Key: key}
	}
	return b, nil
}

// VerifyBundle checks both b.Identity's self-signature and the signed
// pre-key's signature against it (spec §3's PreKeyBundle invariant, §4.4's
// "on A-side, additionally verify the signed pre-key signature").
func VerifyBundle(b wire.PreKeyBundle) error {
	if err := VerifyRemoteIdentity(b.Identity); err != nil {
		return err
	}
	signingPub := crypto.Ed25519PublicKey(b.Identity.SigningKey)
	if !crypto.Verify(signingPub, b.PreKeySigned.Key[:], b.PreKeySigned.Signature) {
		return fmt.Errorf("identity: signed pre-key signature invalid: %w", errs.ErrBadIdentity)
	}
	return nil
}
