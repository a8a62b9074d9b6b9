package peer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXorShift128PlusDeterministic(t *testing.T) {
	a := newXorShift128Plus(42)
	b := newXorShift128Plus(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Next(), b.Next())
	}
}

func TestXorShift128PlusDifferentSeedsDiverge(t *testing.T) {
	a := newXorShift128Plus(1)
	b := newXorShift128Plus(2)
	require.NotEqual(t, a.Next(), b.Next())
}

func TestFillBytesDeterministic(t *testing.T) {
	a := make([]byte, 1024)
	b := make([]byte, 1024)
	newXorShift128Plus(7).FillBytes(a)
	newXorShift128Plus(7).FillBytes(b)
	require.Equal(t, a, b)

	allZero := true
	for _, v := range a {
		if v != 0 {
			allZero = false
			break
		}
	}
	require.False(t, allZero, "FillBytes should not produce all-zero output")
}
