package ratchet

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duskwire/internal/crypto"
	"duskwire/internal/engine"
)

func newTestCryptoEngine() *engine.CryptoEngine {
	return engine.New(rand.Reader)
}

func bootstrapPair(t *testing.T) (alice, bob *Engine) {
	cryptoEng := newTestCryptoEngine()

	var rootKey [32]byte
	_, err := rand.Read(rootKey[:])
	require.NoError(t, err)

	// Bob's initial ratchet keypair stands in for his signed pre-key; Alice's
	// initial ratchet keypair stands in for her X3DH ephemeral key.
	bobPriv, bobPub, err := crypto.GenerateX25519(rand.Reader)
	require.NoError(t, err)
	alicePriv, alicePub, err := crypto.GenerateX25519(rand.Reader)
	require.NoError(t, err)

	alice = New(cryptoEng, rootKey, alicePriv, alicePub, 1000, 10000, 1000, 7*24*time.Hour, nil)
	bob = New(cryptoEng, rootKey, bobPriv, bobPub, 1000, 10000, 1000, 7*24*time.Hour, nil)

	_, err = alice.BootstrapSending(bobPub)
	require.NoError(t, err)
	_, err = bob.BootstrapReceiving(alicePub)
	require.NoError(t, err)
	return alice, bob
}

func TestPingPongSingleChain(t *testing.T) {
	alice, bob := bootstrapPair(t)

	aliceStep, err := alice.PrepareSend()
	require.NoError(t, err)
	mk1 := aliceStep.SendingChain.Advance()

	bobStep, isNew, err := bob.AdmitRemoteKey(alice.LocalPublicKey())
	require.NoError(t, err)
	require.False(t, isNew, "bob already has a receiving chain for alice's bootstrap ratchet key")

	got1, err := bob.Receive(bobStep, 1)
	require.NoError(t, err)
	require.Equal(t, mk1, got1)
}

func TestOutOfOrderDeliveryCachesSkippedKeys(t *testing.T) {
	alice, bob := bootstrapPair(t)

	aliceStep, err := alice.PrepareSend()
	require.NoError(t, err)
	mk1 := aliceStep.SendingChain.Advance()
	mk2 := aliceStep.SendingChain.Advance()
	mk3 := aliceStep.SendingChain.Advance()

	bobStep, _, err := bob.AdmitRemoteKey(alice.LocalPublicKey())
	require.NoError(t, err)

	got3, err := bob.Receive(bobStep, 3)
	require.NoError(t, err)
	require.Equal(t, mk3, got3)
	require.Equal(t, 2, bob.CacheStats().Len())

	got1, err := bob.Receive(bobStep, 1)
	require.NoError(t, err)
	require.Equal(t, mk1, got1)

	got2, err := bob.Receive(bobStep, 2)
	require.NoError(t, err)
	require.Equal(t, mk2, got2)

	require.Equal(t, 0, bob.CacheStats().Len())
}

func TestDuplicateMessageRejected(t *testing.T) {
	alice, bob := bootstrapPair(t)

	aliceStep, err := alice.PrepareSend()
	require.NoError(t, err)
	aliceStep.SendingChain.Advance()

	bobStep, _, err := bob.AdmitRemoteKey(alice.LocalPublicKey())
	require.NoError(t, err)

	_, err = bob.Receive(bobStep, 1)
	require.NoError(t, err)

	_, err = bob.Receive(bobStep, 1)
	require.Error(t, err)
}

func TestDHRotationBuildsNewSendingChain(t *testing.T) {
	alice, bob := bootstrapPair(t)

	aliceStep, err := alice.PrepareSend()
	require.NoError(t, err)
	aliceStep.SendingChain.Advance()

	bobStep, _, err := bob.AdmitRemoteKey(alice.LocalPublicKey())
	require.NoError(t, err)
	_, err = bob.Receive(bobStep, 1)
	require.NoError(t, err)

	// Bob replies: his current step has a receiving chain but no sending
	// chain yet, so PrepareSend rotates his local ratchet keypair.
	beforeCounter := bob.DHCounter()
	replyStep, err := bob.PrepareSend()
	require.NoError(t, err)
	require.NotNil(t, replyStep.SendingChain)
	require.Equal(t, beforeCounter+1, bob.DHCounter())
	require.Equal(t, uint32(0), replyStep.SendingPreviousCounter)

	replyMK := replyStep.SendingChain.Advance()

	aliceStep2, isNew, err := alice.AdmitRemoteKey(bob.LocalPublicKey())
	require.NoError(t, err)
	require.True(t, isNew)

	got, err := alice.Receive(aliceStep2, 1)
	require.NoError(t, err)
	require.Equal(t, replyMK, got)
}

func TestCheckWindowRejectsStaleEpoch(t *testing.T) {
	cryptoEng := newTestCryptoEngine()
	var rootKey [32]byte
	bobPriv, bobPub, err := crypto.GenerateX25519(rand.Reader)
	require.NoError(t, err)
	alicePriv, alicePub, err := crypto.GenerateX25519(rand.Reader)
	require.NoError(t, err)

	alice := New(cryptoEng, rootKey, alicePriv, alicePub, 3, 10000, 1000, 7*24*time.Hour, nil)
	_, err = alice.BootstrapSending(bobPub)
	require.NoError(t, err)
	_ = bobPriv

	for i := 0; i < 5; i++ {
		alice.ring.Current().SendingChain = nil // force another rotation next call
		_, err := alice.PrepareSend()
		require.NoError(t, err)
	}

	require.Equal(t, uint32(6), alice.DHCounter())
	err = alice.CheckWindow(0)
	require.Error(t, err)
}
