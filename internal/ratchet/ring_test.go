package ratchet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"duskwire/internal/crypto"
)

func fakeRemoteKey(b byte) crypto.CryptoKey {
	var k [32]byte
	k[0] = b
	return crypto.X25519PublicKey(k)
}

func TestRingEvictsOldestOnOverflow(t *testing.T) {
	r := NewRing(2)
	s1 := newStep(fakeRemoteKey(1))
	s2 := newStep(fakeRemoteKey(2))
	s3 := newStep(fakeRemoteKey(3))

	_, evicted := r.Push(s1)
	require.False(t, evicted)
	_, evicted = r.Push(s2)
	require.False(t, evicted)

	evictedID, didEvict := r.Push(s3)
	require.True(t, didEvict)
	require.Equal(t, s1.StepID, evictedID)

	_, ok := r.Get(s1.StepID)
	require.False(t, ok)
	_, ok = r.Get(s2.StepID)
	require.True(t, ok)
	require.Equal(t, s3, r.Current())
}
