package identity

import (
	"fmt"

	"duskwire/internal/crypto"
	"duskwire/internal/errs"
	"duskwire/internal/wire"
)

// VerifyRemoteIdentity checks that id.Signature verifies under id.SigningKey
// over the serialized exchange key, as required before admitting a peer's
// identity into a session (spec §3's RemoteIdentity invariant, §4.4's
// "verify the peer Identity signature").
func VerifyRemoteIdentity(id wire.Identity) error {
	signingPub := crypto.Ed25519PublicKey(id.SigningKey)
	if !crypto.Verify(signingPub, id.ExchangeKey[:], id.Signature) {
		return fmt.Errorf("identity: identity signature invalid: %w", errs.ErrBadIdentity)
	}
	return nil
}
