package jitter

// entry is one fixed-size ring slot. Owned exclusively by the enclosing
// Buffer; never aliased outside it. The pcm array is preallocated at
// construction and reused in place — no allocation occurs in the steady
// state receive path except the per-dequeued-frame copy handed to callers.
type entry struct {
	available    bool
	seq          uint16
	rtpTimestamp uint32
	ssrc         uint32
	payloadType  uint8
	flags        uint8
	pcm          []byte
	pcmLen       int
}

func newEntry(maxFrameBytes int) entry {
	return entry{pcm: make([]byte, maxFrameBytes)}
}

func (e *entry) set(seq uint16, flags, payloadType uint8, rtpTimestamp, ssrc uint32, pcm []byte) {
	e.flags = flags
	e.payloadType = payloadType
	e.seq = seq
	e.rtpTimestamp = rtpTimestamp
	e.ssrc = ssrc

	n := copy(e.pcm, pcm)
	e.pcmLen = n
	e.available = true
}

func (e *entry) clear() {
	e.available = false
	e.pcmLen = 0
}

// Frame is the decoded audio handed out of the buffer on dequeue.
type Frame struct {
	Seq          uint16
	RTPTimestamp uint32
	SSRC         uint32
	PayloadType  uint8
	Flags        uint8
	PCM          []byte
}

func (e *entry) toFrame() Frame {
	pcm := make([]byte, e.pcmLen)
	copy(pcm, e.pcm[:e.pcmLen])

	return Frame{
		Seq:          e.seq,
		RTPTimestamp: e.rtpTimestamp,
		SSRC:         e.ssrc,
		PayloadType:  e.payloadType,
		Flags:        e.flags,
		PCM:          pcm,
	}
}
