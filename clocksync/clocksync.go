// Package clocksync maintains the mapping from RTP timestamp to wall-clock
// microseconds and derives presentation timestamps from it.
package clocksync

import (
	"encoding/binary"
	"sync/atomic"
)

// ntpEpochOffsetSeconds is the NTP (1900) to POSIX (1970) epoch shift.
const ntpEpochOffsetSeconds = 2_208_988_800

// PacketType is the low 7 bits of byte 1 of a control-socket packet that
// identifies a sync packet.
const PacketType = 0x54

// snapshot is the atomically published sync point. Reads and writes always
// go through a single pointer swap so a PTS computation never observes a
// torn (time, rtp) pair.
type snapshot struct {
	timeUs    int64
	rtpTicks  uint32
	nextTicks uint32 // unused by the core; passed through for observability
}

// State holds the current sync point for one session.
type State struct {
	current atomic.Pointer[snapshot]
}

// NewState returns a State with no sync point observed yet; PTS
// computations against it use a zero time offset until the first Update.
func NewState() *State {
	s := &State{}
	s.current.Store(&snapshot{})

	return s
}

// Update parses a sync control packet and publishes the new sync point.
// Returns false if the packet is not a sync packet (byte 1
// low 7 bits != PacketType) or is too short to parse.
func (s *State) Update(packet []byte) bool {
	if len(packet) < 20 {
		return false
	}

	if packet[1]&0x7F != PacketType {
		return false
	}

	rtpTicks := binary.BigEndian.Uint32(packet[4:8])
	ntpSeconds := binary.BigEndian.Uint32(packet[8:12])
	ntpFraction := binary.BigEndian.Uint32(packet[12:16])
	nextTicks := binary.BigEndian.Uint32(packet[16:20])

	ntpUs := int64(ntpSeconds)*1_000_000 + (int64(ntpFraction)*1_000_000)>>32

	s.current.Store(&snapshot{
		timeUs:    ntpUs - ntpEpochOffsetSeconds*1_000_000,
		rtpTicks:  rtpTicks,
		nextTicks: nextTicks,
	})

	return true
}

// PTSMicros computes the wall-clock presentation timestamp for an RTP
// timestamp: signed 32-bit subtraction against the sync RTP timestamp
// tolerates small reorderings across the sync boundary. If no
// sync has been observed yet, the result is a small offset from zero,
// which callers deliver anyway — the sink prebuffer absorbs it.
func (s *State) PTSMicros(rtpTimestamp uint32, sampleRate int) int64 {
	snap := s.current.Load()

	delta := int32(rtpTimestamp - snap.rtpTicks) //nolint:gosec // intentional wraparound subtraction

	return int64(delta)*1_000_000/int64(sampleRate) + snap.timeUs
}

// NextTimestamp returns the "next" RTP timestamp field from the most recent
// sync packet. The core does not use it; exposed for observability only.
func (s *State) NextTimestamp() uint32 {
	return s.current.Load().nextTicks
}
