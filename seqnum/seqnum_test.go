package seqnum_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mycophonic/raop/seqnum"
)

func TestBeforeWraparound(t *testing.T) {
	require.True(t, seqnum.Before(65535, 0))
	require.False(t, seqnum.Before(0, 65535))
	require.True(t, seqnum.Before(100, 101))
	require.False(t, seqnum.Before(100, 100))
}

func TestDistanceWraparound(t *testing.T) {
	require.Equal(t, uint16(1), seqnum.Distance(65535, 0))
	require.Equal(t, uint16(0), seqnum.Distance(100, 100))
	require.Equal(t, uint16(65535), seqnum.Distance(1, 0))
}

// TestConsistentWithModularArithmetic checks before(a,b) <=> !before(b,a)
// && a != b holds for arbitrary 16-bit sequence numbers.
func TestConsistentWithModularArithmetic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := uint16(rapid.IntRange(0, 65535).Draw(t, "a"))
		b := uint16(rapid.IntRange(0, 65535).Draw(t, "b"))

		if a == b {
			require.False(t, seqnum.Before(a, b))
			require.False(t, seqnum.Before(b, a))
			return
		}

		require.Equal(t, seqnum.Before(a, b), !seqnum.Before(b, a))
	})
}

func TestCompareMatchesBefore(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := uint16(rapid.IntRange(0, 65535).Draw(t, "a"))
		b := uint16(rapid.IntRange(0, 65535).Draw(t, "b"))

		switch seqnum.Compare(a, b) {
		case -1:
			require.True(t, seqnum.Before(a, b))
		case 1:
			require.True(t, seqnum.Before(b, a))
		default:
			require.Equal(t, a, b)
		}
	})
}
