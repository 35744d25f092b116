package codec

import (
	"fmt"
	"sync"

	"github.com/mycophonic/raop"
	"github.com/mycophonic/raop/codec/aacdec"
	"github.com/mycophonic/raop/codec/aaceld"
	"github.com/mycophonic/raop/codec/alac"
	"github.com/mycophonic/raop/codec/pcm"
)

// Selector chooses and owns the single Decoder instance used by a session's
// two receive loops. Selection happens at most once; both loops
// then share the resulting Decoder and must serialize calls into it
// themselves, since AAC/AAC-ELD/ALAC decode state carries across frames.
type Selector struct {
	mu      sync.Mutex
	decoder Decoder
	err     error
	done    bool
}

// Select returns the session's Decoder, constructing and configuring it on
// the first call. Subsequent calls return the same instance (or the same
// error) without reconfiguring.
func (s *Selector) Select(sess *raop.Session) (Decoder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return s.decoder, s.err
	}

	s.done = true
	s.decoder, s.err = build(sess)

	return s.decoder, s.err
}

// build constructs the decoder for a session's negotiated format,
// resolving FormatUnknown via the legacy compression-type fallback:
// 1 -> ALAC, 0 -> PCM, anything else -> PCM.
func build(sess *raop.Session) (Decoder, error) {
	format := sess.CodecFormat
	if format == raop.FormatUnknown {
		switch sess.CompressionType {
		case 1:
			format = raop.FormatALAC
		default:
			format = raop.FormatPCM
		}
	}

	var dec Decoder

	switch format {
	case raop.FormatALAC:
		dec = &alac.Adapter{}
	case raop.FormatAAC:
		dec = &aacdec.Decoder{}
	case raop.FormatAACELD:
		dec = &aaceld.Decoder{}
	case raop.FormatPCM:
		dec = &pcm.Decoder{}
	case raop.FormatUnknown:
		dec = &pcm.Decoder{}
	default:
		return nil, fmt.Errorf("codec: unsupported format %s", format)
	}

	frameLen := sess.FramesPerPacket
	if frameLen == 0 {
		frameLen = DefaultFrameLength(format)
	}

	const bitDepth = 16

	channels := 2

	if err := dec.Configure(raop.SampleRate, channels, bitDepth, frameLen); err != nil {
		return nil, fmt.Errorf("codec: configure %s: %w", format, err)
	}

	return dec, nil
}
