package ratchet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainAdvanceDeterministic(t *testing.T) {
	var ck [32]byte
	for i := range ck {
		ck[i] = byte(i)
	}

	a := NewChain(ck)
	b := NewChain(ck)

	mkA := a.Advance()
	mkB := b.Advance()
	require.Equal(t, mkA, mkB)
	require.Equal(t, uint32(1), a.Counter())

	mkA2 := a.Advance()
	require.NotEqual(t, mkA, mkA2, "successive chain steps must yield distinct message keys")
	require.Equal(t, uint32(2), a.Counter())
}

func TestChainMatchesBothDirections(t *testing.T) {
	var ck [32]byte
	ck[0] = 0x42

	sender := NewChain(ck)
	receiver := NewChain(ck)

	for i := 0; i < 5; i++ {
		require.Equal(t, sender.Advance(), receiver.Advance())
	}
}
