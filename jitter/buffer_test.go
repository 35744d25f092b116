package jitter_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mycophonic/raop/jitter"
	"github.com/mycophonic/raop/seqnum"
)

func pcmFor(seq uint16) []byte {
	return []byte{byte(seq), byte(seq >> 8), 0xAA, 0xBB}
}

func admitSeq(t *testing.T, b *jitter.Buffer, seq uint16) jitter.AdmitResult {
	t.Helper()
	return b.Admit(seq, 0, 0, uint32(seq)*352, 1, pcmFor(seq))
}

func TestAdmitThenDequeueOrderedStream(t *testing.T) {
	b := jitter.New(16)

	for _, seq := range []uint16{100, 101, 102, 103, 104} {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, seq))
	}

	for _, want := range []uint16{100, 101, 102, 103, 104} {
		frame, ok := b.Dequeue(false)
		require.True(t, ok)
		require.Equal(t, want, frame.Seq)
	}

	_, ok := b.Dequeue(false)
	require.False(t, ok)
}

func TestDuplicateAdmit(t *testing.T) {
	b := jitter.New(16)

	require.Equal(t, jitter.Admitted, admitSeq(t, b, 5))
	require.Equal(t, jitter.Duplicate, admitSeq(t, b, 5))

	// Unrelated admit interleaved doesn't change the outcome.
	require.Equal(t, jitter.Admitted, admitSeq(t, b, 6))
	require.Equal(t, jitter.Duplicate, admitSeq(t, b, 5))
}

func TestOldSequenceRejected(t *testing.T) {
	b := jitter.New(16)

	require.Equal(t, jitter.Admitted, admitSeq(t, b, 100))
	_, _ = b.Dequeue(false)
	require.Equal(t, jitter.Admitted, admitSeq(t, b, 101))

	require.Equal(t, jitter.Old, admitSeq(t, b, 50))
}

func TestWraparoundOrdering(t *testing.T) {
	b := jitter.New(16)

	seqs := []uint16{65534, 65535, 0, 1}
	for _, s := range seqs {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, s))
	}

	for _, want := range seqs {
		frame, ok := b.Dequeue(false)
		require.True(t, ok)
		require.Equal(t, want, frame.Seq)
	}
}

func TestOverrunForcesFlush(t *testing.T) {
	b := jitter.New(16)

	require.Equal(t, jitter.Admitted, admitSeq(t, b, 100))
	require.Equal(t, jitter.Admitted, admitSeq(t, b, 100+jitter.Capacity))

	frame, ok := b.Dequeue(false)
	require.True(t, ok)
	require.Equal(t, uint16(100+jitter.Capacity), frame.Seq)

	_, ok = b.Dequeue(false)
	require.False(t, ok)

	// Draining the only frame empties the window; firstSeq stays at the
	// overrun sequence.
	first, _, empty := b.Snapshot()
	require.True(t, empty)
	require.Equal(t, uint16(100+jitter.Capacity), first)
}

func TestSingleLossWithResend(t *testing.T) {
	b := jitter.New(16)

	for _, s := range []uint16{100, 101, 103} {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, s))
	}

	// 100 and 101 are ready and delivered first.
	for _, want := range []uint16{100, 101} {
		frame, ok := b.Dequeue(false)
		require.True(t, ok)
		require.Equal(t, want, frame.Seq)
	}

	// 102 missing: dequeue blocks.
	_, ok := b.Dequeue(false)
	require.False(t, ok)

	start, length := b.LeadingGap()
	require.Equal(t, uint16(102), start)
	require.Equal(t, uint16(1), length)

	// Resend arrives.
	require.Equal(t, jitter.Admitted, admitSeq(t, b, 102))

	for _, want := range []uint16{102, 103} {
		frame, ok := b.Dequeue(false)
		require.True(t, ok)
		require.Equal(t, want, frame.Seq)
	}
}

func TestNoResendDrainsImmediatelyInArrivalOrder(t *testing.T) {
	b := jitter.New(16)

	arrival := []uint16{100, 102, 101, 103}

	var delivered []uint16

	for _, s := range arrival {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, s))

		for {
			frame, ok := b.Dequeue(true)
			if !ok {
				break
			}

			delivered = append(delivered, frame.Seq)
		}
	}

	require.Equal(t, arrival, delivered)
}

func TestFlushThenDequeueNone(t *testing.T) {
	b := jitter.New(16)

	for s := uint16(100); s <= 110; s++ {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, s))
	}

	b.Flush(200)

	_, ok := b.Dequeue(false)
	require.False(t, ok)

	for s := uint16(200); s <= 205; s++ {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, s))
	}

	for s := uint16(200); s <= 205; s++ {
		frame, ok := b.Dequeue(false)
		require.True(t, ok)
		require.Equal(t, s, frame.Seq)
	}
}

func TestLeadingGapNoneWhenHeadAvailable(t *testing.T) {
	b := jitter.New(16)
	require.Equal(t, jitter.Admitted, admitSeq(t, b, 5))

	start, length := b.LeadingGap()
	require.Equal(t, uint16(5), start)
	require.Equal(t, uint16(0), length)
}

// TestInvariantWindowBounds checks that after every admit, the window is
// non-empty, contains the admitted seq, and spans fewer than Capacity slots.
func TestInvariantWindowBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := jitter.New(16)

		n := rapid.IntRange(1, 200).Draw(t, "n")
		start := uint16(rapid.IntRange(0, 65535).Draw(t, "start"))

		for i := 0; i < n; i++ {
			seq := start + uint16(i)
			if res := b.Admit(seq, 0, 0, uint32(seq)*352, 1, pcmFor(seq)); res == jitter.Admitted {
				first, last, empty := b.Snapshot()
				require.False(t, empty)
				require.False(t, seqnum.Before(seq, first))
				require.False(t, seqnum.Before(last, seq))
				require.Less(t, int(seqnum.Distance(first, last)), jitter.Capacity)
			}
		}
	})
}

// TestRandomDropsWithResendStillOrdered checks that when dropped packets
// are re-admitted before overrun, delivery stays in order with no dups.
func TestRandomDropsWithResendStillOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := jitter.New(16)

	const n = 500
	dropped := make(map[uint16]bool)

	for i := uint16(0); i < n; i++ {
		if rng.Float64() < 0.01 {
			dropped[i] = true
			continue
		}

		require.Equal(t, jitter.Admitted, admitSeq(t, b, i))
	}

	for seq := range dropped {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, seq))
	}

	var delivered []uint16
	for i := 0; i < n; i++ {
		frame, ok := b.Dequeue(false)
		require.True(t, ok, "expected frame %d", i)
		delivered = append(delivered, frame.Seq)
	}

	for i, seq := range delivered {
		require.Equal(t, uint16(i), seq)
	}
}

// TestNoResendAlwaysDrainsToAtMostOnePending checks that draining with
// noResend never leaves more than one admitted frame pending.
func TestNoResendAlwaysDrainsToAtMostOnePending(t *testing.T) {
	b := jitter.New(16)

	for i := uint16(0); i < 50; i++ {
		require.Equal(t, jitter.Admitted, admitSeq(t, b, i))

		for {
			_, ok := b.Dequeue(true)
			if !ok {
				break
			}
		}

		_, _, empty := b.Snapshot()
		require.True(t, empty)
	}
}
