package x3dh

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"duskwire/internal/engine"
	"duskwire/internal/identity"
	"duskwire/internal/wire"
)

func newTestEngine() *engine.CryptoEngine {
	return engine.New(rand.Reader)
}

func TestInitiateCompleteAgree(t *testing.T) {
	eng := newTestEngine()

	alice, err := identity.New(eng, 1, 1, 1)
	require.NoError(t, err)
	bob, err := identity.New(eng, 2, 1, 1)
	require.NoError(t, err)

	bundle, err := bob.Bundle()
	require.NoError(t, err)
	require.NotNil(t, bundle.PreKey, "bob should have offered his one remaining one-time pre-key")

	res, err := Initiate(eng, alice, bundle)
	require.NoError(t, err)
	require.NotNil(t, res.UsedPreKeyID)

	ephPub := res.EphemeralPub.Bytes32()
	pkm := wire.PreKeyMessage{
		RegistrationID: alice.RegistrationID,
		PreKeyID:       res.UsedPreKeyID,
		PreKeySignedID: res.UsedSignedPreKeyID,
		BaseKey:        ephPub,
		Identity:       alice.WireIdentity(),
	}

	rootB, err := Complete(bob, pkm)
	require.NoError(t, err)
	require.Equal(t, res.RootKey, rootB)

	// Bob's one-time pre-key must now be consumed: a second Complete with the
	// same PreKeyMessage fails.
	_, err = Complete(bob, pkm)
	require.Error(t, err)
}

func TestInitiateRejectsTamperedBundle(t *testing.T) {
	eng := newTestEngine()

	alice, err := identity.New(eng, 1, 1, 0)
	require.NoError(t, err)
	bob, err := identity.New(eng, 2, 1, 0)
	require.NoError(t, err)

	bundle, err := bob.Bundle()
	require.NoError(t, err)
	bundle.PreKeySigned.Key[0] ^= 0xFF

	_, err = Initiate(eng, alice, bundle)
	require.Error(t, err)
}

func TestCompleteRejectsUnknownSignedPreKey(t *testing.T) {
	eng := newTestEngine()

	alice, err := identity.New(eng, 1, 1, 0)
	require.NoError(t, err)
	bob, err := identity.New(eng, 2, 1, 0)
	require.NoError(t, err)

	bundle, err := bob.Bundle()
	require.NoError(t, err)

	res, err := Initiate(eng, alice, bundle)
	require.NoError(t, err)

	pkm := wire.PreKeyMessage{
		RegistrationID: alice.RegistrationID,
		PreKeySignedID: res.UsedSignedPreKeyID + 7,
		BaseKey:        res.EphemeralPub.Bytes32(),
		Identity:       alice.WireIdentity(),
	}
	_, err = Complete(bob, pkm)
	require.Error(t, err)
}
