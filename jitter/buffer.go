// Package jitter implements the fixed-capacity circular dejitter buffer:
// a 1024-slot ring indexed by RTP sequence number that tolerates
// reordering and short loss, supports selective-retransmission gap
// scanning, and guarantees at most one delivery per sequence number.
package jitter

import (
	"sync"

	"github.com/mycophonic/raop/seqnum"
)

// Capacity is the fixed ring size.
const Capacity = 1024

// AdmitResult reports the outcome of an Admit call.
type AdmitResult int

const (
	// Admitted means the packet was written into the ring.
	Admitted AdmitResult = iota
	// Duplicate means a sequence number already present and available was
	// re-admitted; the existing slot is left untouched.
	Duplicate
	// Old means the sequence number precedes the current window and was
	// dropped without touching the ring.
	Old
	// Rejected means the payload could not fit the preallocated slot.
	Rejected
)

// Buffer is the circular dejitter ring. All operations take place under the
// buffer's own mutex; callers outside this package never touch entries
// directly.
type Buffer struct {
	mu       sync.Mutex
	entries  [Capacity]entry
	firstSeq uint16
	lastSeq  uint16
	isEmpty  bool
}

// New constructs an empty buffer whose slots can each hold up to
// maxFrameBytes of decoded PCM.
func New(maxFrameBytes int) *Buffer {
	b := &Buffer{isEmpty: true}
	for i := range b.entries {
		b.entries[i] = newEntry(maxFrameBytes)
	}

	return b
}

// Admit inserts a decoded frame at seq, applying the window's admission
// rules: old sequences are dropped, duplicates of an available slot are
// ignored, and an overrun force-flushes the window forward.
func (b *Buffer) Admit(seq uint16, flags, payloadType uint8, rtpTimestamp, ssrc uint32, pcm []byte) AdmitResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(pcm) > len(b.entries[0].pcm) {
		return Rejected
	}

	if !b.isEmpty && seqnum.Before(seq, b.firstSeq) {
		return Old
	}

	if !b.isEmpty && seqnum.Distance(b.firstSeq, seq) >= Capacity {
		// Buffer overrun: force-flush to the new sequence, then continue
		// admitting below.
		b.flushLocked(int32(seq))
	}

	slot := &b.entries[seq%Capacity]
	if slot.available && slot.seq == seq {
		return Duplicate
	}

	slot.set(seq, flags, payloadType, rtpTimestamp, ssrc, pcm)

	switch {
	case b.isEmpty:
		b.firstSeq = seq
		b.lastSeq = seq
		b.isEmpty = false
	case seqnum.Before(b.lastSeq, seq):
		b.lastSeq = seq
	}

	return Admitted
}

// bufLen returns distance(first,last)+1, the number of sequence slots
// currently spanned by the window (only meaningful when !isEmpty).
func (b *Buffer) bufLen() int {
	return int(seqnum.Distance(b.firstSeq, b.lastSeq)) + 1
}

// advanceFirst moves firstSeq past the slot just handed out or dropped. If
// that slot was lastSeq, it instead marks the buffer empty and leaves
// firstSeq in place.
func (b *Buffer) advanceFirst() {
	if b.firstSeq == b.lastSeq {
		b.isEmpty = true
		return
	}

	b.firstSeq++
}

// Dequeue removes and returns the frame at the head of the window, or
// (Frame{}, false) if nothing is ready to deliver. With noResend set, the
// head slot is always handed out regardless of availability (mirroring
// mode). With noResend false, an unavailable head slot blocks
// delivery until a resend fills it, unless the window is full, in which
// case the stuck slot is dropped to make room.
func (b *Buffer) Dequeue(noResend bool) (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isEmpty {
		return Frame{}, false
	}

	buflen := b.bufLen()
	slot := &b.entries[b.firstSeq%Capacity]

	if noResend || slot.available {
		frame := slot.toFrame()
		slot.clear()
		b.advanceFirst()

		return frame, true
	}

	// Resend mode, head slot missing.
	if buflen < Capacity {
		return Frame{}, false // wait for resend
	}

	// Buffer full and the leading slot is still missing: drop it so the
	// window can advance; caller may call again for the next slot.
	b.advanceFirst()

	return Frame{}, false
}

// Flush discards all pending slots. nextSeq becomes the new window start
// when it is a valid 16-bit sequence number; otherwise the buffer is left
// empty and the next Admit initializes both cursors. Either way isEmpty is
// set true, so no stale slot is ever handed out as valid before the next
// Admit.
func (b *Buffer) Flush(nextSeq int32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flushLocked(nextSeq)
}

func (b *Buffer) flushLocked(nextSeq int32) {
	for i := range b.entries {
		b.entries[i].clear()
	}

	if nextSeq < 0 || nextSeq > 0xFFFF {
		b.isEmpty = true
		return
	}

	b.isEmpty = true
	b.firstSeq = uint16(nextSeq) //nolint:gosec // range-checked above
	b.lastSeq = b.firstSeq - 1
}

// LeadingGap walks forward from firstSeq looking for the first available
// slot (or lastSeq). It returns the contiguous missing range's length; a
// length of 0 means there is no leading gap. Used by the resend requester
// to decide what range to NACK.
func (b *Buffer) LeadingGap() (start uint16, length uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isEmpty {
		return 0, 0
	}

	seq := b.firstSeq
	for seq != b.lastSeq {
		if b.entries[seq%Capacity].available && b.entries[seq%Capacity].seq == seq {
			break
		}

		seq++
	}

	if seq == b.firstSeq {
		return b.firstSeq, 0
	}

	return b.firstSeq, seqnum.Distance(b.firstSeq, seq)
}

// Snapshot reports the current window bounds and emptiness, for tests and
// metrics; it takes the buffer mutex.
func (b *Buffer) Snapshot() (first, last uint16, empty bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.firstSeq, b.lastSeq, b.isEmpty
}
