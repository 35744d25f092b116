// Package sink defines the PCM delivery capability the core hands decoded,
// PTS-stamped audio to, and wires the externally-driven flush operation.
// The core holds exactly one sink per session.
package sink

import "github.com/mycophonic/raop/jitter"

// Frame is one decoded, timestamped PCM frame ready for playback.
type Frame struct {
	Seq      uint16
	PTSMicro int64
	PCM      []byte
}

// Sink is the capability a collaborator (platform audio output, a test
// harness, a recording sink) implements to receive decoded audio and flush
// notifications. Both methods must return quickly: OnPCM runs on the
// receive-loop goroutine that produced the frame, and OnFlush on the
// goroutine that called Flush.
type Sink interface {
	// OnPCM delivers one decoded frame in sequence-number order.
	OnPCM(frame Frame)
	// OnFlush notifies the sink that the session discarded its buffered
	// audio and playback should resynchronize on the next OnPCM call.
	OnFlush()
}

// Flush drains buf under its own mutex to nextSeq, then — outside any
// mutex — notifies snk. This is the only path by which something outside
// the two receive loops mutates session state.
func Flush(buf *jitter.Buffer, snk Sink, nextSeq int32) {
	buf.Flush(nextSeq)
	snk.OnFlush()
}
