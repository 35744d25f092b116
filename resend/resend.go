// Package resend emits RTCP-style NACK requests for the leading contiguous
// gap in a [jitter.Buffer]. It is only ever invoked by the data loop, and
// only when the session is not mirroring (during mirroring, resends are
// disabled because frames would arrive too late).
package resend

import (
	"net"
	"sync/atomic"

	"github.com/mycophonic/raop/jitter"
)

// nackMarker and nackType are the first two bytes of every outgoing NACK.
const (
	nackMarker = 0x80
	nackType   = 0x55 | 0x80
)

// Sequence is the 16-bit control-sequence counter stamped into outgoing
// retransmission requests. Safe for concurrent use.
type Sequence struct {
	counter atomic.Uint32
}

// Next returns the current counter value and increments it: our control
// sequence, big-endian, post-increment. The counter increments regardless
// of whether the caller ends up sending successfully.
func (s *Sequence) Next() uint16 {
	return uint16(s.counter.Add(1) - 1) //nolint:gosec // 16-bit counter by design, wraps
}

// ControlSender is the subset of *net.UDPConn used to emit a NACK. Send
// failure is logged by the caller and never retried.
type ControlSender interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// Requester scans a buffer's leading gap and emits a NACK over the control
// socket when one is found.
type Requester struct {
	seq Sequence
}

// Request inspects buf's leading gap and, if one exists, sends an 8-byte
// NACK to peer over sender naming the gap start and length. It reports
// whether a NACK was sent and the send error, if any (logged by caller,
// never retried).
func (r *Requester) Request(buf *jitter.Buffer, sender ControlSender, peer *net.UDPAddr) (sent bool, err error) {
	start, length := buf.LeadingGap()
	if length == 0 {
		return false, nil
	}

	packet := [8]byte{
		0: nackMarker,
		1: nackType,
	}
	ctrlSeq := r.seq.Next()
	packet[2] = byte(ctrlSeq >> 8)
	packet[3] = byte(ctrlSeq)
	packet[4] = byte(start >> 8)
	packet[5] = byte(start)
	packet[6] = byte(length >> 8)
	packet[7] = byte(length)

	_, err = sender.WriteToUDP(packet[:], peer)

	return true, err
}
