// Package codec selects and wraps the per-session audio decoder.
// Selection happens once per session, guarded by a mutex; the decoder
// instance is then shared by both receive loops, which must serialize their
// decode calls into it (AAC and AAC-ELD state carries across frames).
package codec

import "github.com/mycophonic/raop"

// Decoder is the uniform decode capability every codec implements: one-time
// configuration, a fixed per-frame output size, and frame decode.
type Decoder interface {
	// Configure prepares the decoder for the given format and frame length.
	// frameLen is in samples per channel.
	Configure(sampleRate, channels, bitDepth, frameLen int) error
	// OutputSize returns the number of PCM bytes produced per decoded
	// frame: frameLen * channels * bitDepth/8.
	OutputSize() int
	// Decode decodes one frame. On error, callers substitute a
	// zero-filled buffer of OutputSize() bytes rather than dropping the
	// frame, to preserve PTS continuity.
	Decode(in []byte) ([]byte, error)
	// Close releases any resources (subprocess, native handle) held by
	// the decoder. Safe to call once at session teardown.
	Close() error
}

// DefaultFrameLength returns the frame length implied by format when the
// session did not supply a samples-per-frame hint.
func DefaultFrameLength(format raop.CodecFormat) int {
	switch format {
	case raop.FormatALAC:
		return 352
	case raop.FormatAAC:
		return 1024
	case raop.FormatAACELD:
		return 480
	case raop.FormatPCM, raop.FormatUnknown:
		return 0
	default:
		return 0
	}
}

// OutputSize computes bytes per decoded frame for a given PCM shape.
func OutputSize(frameLen, channels, bitDepth int) int {
	return frameLen * channels * (bitDepth / 8)
}

// Silence returns a zero-filled buffer of n bytes, used to substitute for a
// decode failure while preserving frame cadence.
func Silence(n int) []byte {
	return make([]byte, n)
}
