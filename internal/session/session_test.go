package session

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duskwire/internal/config"
	"duskwire/internal/engine"
	"duskwire/internal/identity"
	"duskwire/internal/wire"
)

func newTestEngine() *engine.CryptoEngine { return engine.New(rand.Reader) }

func makeIdentities(t *testing.T) (alice, bob *identity.Local) {
	eng := newTestEngine()
	alice, err := identity.New(eng, 1, 1, 1)
	require.NoError(t, err)
	bob, err = identity.New(eng, 2, 1, 1)
	require.NoError(t, err)
	return alice, bob
}

func TestBasicPingPong(t *testing.T) {
	eng := newTestEngine()
	alice, bob := makeIdentities(t)
	opts := config.DefaultOptions()

	bundle, err := alice.Bundle()
	require.NoError(t, err)

	bobSession, err := CreateAsInitiator(eng, bob, bundle, opts)
	require.NoError(t, err)

	env0, err := bobSession.Encrypt([]byte("hello alice"))
	require.NoError(t, err)
	require.True(t, env0.IsPreKeyMessage())

	aliceSession, err := CreateAsResponder(eng, alice, *env0.PreKeyMessage, opts)
	require.NoError(t, err)

	plaintext, err := aliceSession.Decrypt(env0.PreKeyMessage.SignedMessage)
	require.NoError(t, err)
	require.Equal(t, "hello alice", string(plaintext))

	require.Equal(t, 0, alice.OneTimePreKeyCount())

	env1, err := aliceSession.Encrypt([]byte("hello bob"))
	require.NoError(t, err)
	require.False(t, env1.IsPreKeyMessage())

	plaintext2, err := bobSession.Decrypt(*env1.MessageSigned)
	require.NoError(t, err)
	require.Equal(t, "hello bob", string(plaintext2))
}

func establishedPair(t *testing.T) (aliceSession, bobSession *Session) {
	eng := newTestEngine()
	alice, bob := makeIdentities(t)
	opts := config.DefaultOptions()

	bundle, err := alice.Bundle()
	require.NoError(t, err)

	bobSession, err = CreateAsInitiator(eng, bob, bundle, opts)
	require.NoError(t, err)
	env0, err := bobSession.Encrypt([]byte("hello alice"))
	require.NoError(t, err)

	aliceSession, err = CreateAsResponder(eng, alice, *env0.PreKeyMessage, opts)
	require.NoError(t, err)
	_, err = aliceSession.Decrypt(env0.PreKeyMessage.SignedMessage)
	require.NoError(t, err)

	return aliceSession, bobSession
}

func TestOutOfOrderSameEpoch(t *testing.T) {
	aliceSession, bobSession := establishedPair(t)

	// Alice must send at least one message before she has a sending chain;
	// do that first so the subsequent five are a clean run of bare
	// MessageSigned frames in one epoch.
	first, err := aliceSession.Encrypt([]byte("warmup"))
	require.NoError(t, err)
	_, err = bobSession.Decrypt(*first.MessageSigned)
	require.NoError(t, err)

	var envs []wire.MessageSigned
	want := []string{"m1", "m2", "m3", "m4", "m5"}
	for _, w := range want {
		env, err := aliceSession.Encrypt([]byte(w))
		require.NoError(t, err)
		envs = append(envs, *env.MessageSigned)
	}

	order := []int{0, 3, 1, 4, 2}
	got := make([]string, len(order))
	for _, idx := range order {
		pt, err := bobSession.Decrypt(envs[idx])
		require.NoError(t, err)
		got[idx] = string(pt)
	}
	require.Equal(t, want, got)
	require.Equal(t, 0, bobSession.Stats().SkippedKeys)
}

func TestDHRotationSequence(t *testing.T) {
	aliceSession, bobSession := establishedPair(t)

	// Complete scenario 1's ping-pong first: Alice's reply rotates her
	// ratchet key, which Bob admits as a new DH step on decrypt.
	envM1, err := aliceSession.Encrypt([]byte("hello bob"))
	require.NoError(t, err)
	_, err = bobSession.Decrypt(*envM1.MessageSigned)
	require.NoError(t, err)

	envA1, err := aliceSession.Encrypt([]byte("a1"))
	require.NoError(t, err)
	_, err = bobSession.Decrypt(*envA1.MessageSigned)
	require.NoError(t, err)

	// Bob's reply rotates in turn; Alice admits it as a new DH step.
	envB1, err := bobSession.Encrypt([]byte("b1"))
	require.NoError(t, err)
	_, err = aliceSession.Decrypt(*envB1.MessageSigned)
	require.NoError(t, err)

	// Alice's next send rotates again against Bob's newest ratchet key.
	envA2, err := aliceSession.Encrypt([]byte("a2"))
	require.NoError(t, err)
	_, err = bobSession.Decrypt(*envA2.MessageSigned)
	require.NoError(t, err)

	require.Equal(t, uint32(2), aliceSession.Stats().DHCounter)
	require.Equal(t, uint32(2), bobSession.Stats().DHCounter)
}

func TestExpiredSkippedKey(t *testing.T) {
	eng := newTestEngine()
	alice, bob := makeIdentities(t)
	opts := config.Apply(config.WithSkippedKeyTTL(time.Millisecond))

	bundle, err := alice.Bundle()
	require.NoError(t, err)
	bobSession, err := CreateAsInitiator(eng, bob, bundle, opts)
	require.NoError(t, err)
	env0, err := bobSession.Encrypt([]byte("hello alice"))
	require.NoError(t, err)
	aliceSession, err := CreateAsResponder(eng, alice, *env0.PreKeyMessage, opts)
	require.NoError(t, err)
	_, err = aliceSession.Decrypt(env0.PreKeyMessage.SignedMessage)
	require.NoError(t, err)

	envA1, err := aliceSession.Encrypt([]byte("one"))
	require.NoError(t, err)
	envA2, err := aliceSession.Encrypt([]byte("two"))
	require.NoError(t, err)

	// Bob receives counter 2 first, caching counter 1's key.
	_, err = bobSession.Decrypt(*envA2.MessageSigned)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = bobSession.Decrypt(*envA1.MessageSigned)
	require.Error(t, err)
}

func TestTamperedCiphertextFails(t *testing.T) {
	aliceSession, bobSession := establishedPair(t)

	env, err := aliceSession.Encrypt([]byte("integrity matters"))
	require.NoError(t, err)
	tampered := *env.MessageSigned
	tampered.Message.CipherText = append([]byte{}, tampered.Message.CipherText...)
	tampered.Message.CipherText[0] ^= 0xFF

	before := bobSession.Stats()
	_, err = bobSession.Decrypt(tampered)
	require.Error(t, err)
	after := bobSession.Stats()
	require.Equal(t, before, after)
}

func TestSerializeRestoreRoundTrip(t *testing.T) {
	eng := newTestEngine()
	alice, bob := makeIdentities(t)
	opts := config.DefaultOptions()

	bundle, err := alice.Bundle()
	require.NoError(t, err)
	bobSession, err := CreateAsInitiator(eng, bob, bundle, opts)
	require.NoError(t, err)
	env0, err := bobSession.Encrypt([]byte("hello alice"))
	require.NoError(t, err)

	blob, err := bobSession.Serialize()
	require.NoError(t, err)

	restored, err := Restore(eng, blob, bob, bundle.Identity, opts)
	require.NoError(t, err)

	aliceSession, err := CreateAsResponder(eng, alice, *env0.PreKeyMessage, opts)
	require.NoError(t, err)
	_, err = aliceSession.Decrypt(env0.PreKeyMessage.SignedMessage)
	require.NoError(t, err)

	env1, err := aliceSession.Encrypt([]byte("hello bob"))
	require.NoError(t, err)

	plaintext, err := restored.Decrypt(*env1.MessageSigned)
	require.NoError(t, err)
	require.Equal(t, "hello bob", string(plaintext))
}
