// Package aaceld implements AAC-ELD decode (FormatAACELD) via a declarative
// fallback chain: a native cgo binding when built for the target platform,
// an external decoder process fed each access unit on stdin (unframed: no
// LATM framing is added) when a native binding is unavailable, and finally plain AAC-LC decode of the same bitstream when
// neither is available. Each candidate is tried in order at Configure
// time; the first to construct and configure successfully becomes the
// session's decoder.
package aaceld

import (
	"errors"
	"fmt"

	"github.com/mycophonic/raop/codec"
	"github.com/mycophonic/raop/codec/aacdec"
)

// ErrNoDecoderAvailable is returned when every candidate in the fallback
// chain failed to configure.
var ErrNoDecoderAvailable = errors.New("aaceld: no decoder in the fallback chain was available")

// Decoder selects and delegates to the first working candidate.
type Decoder struct {
	inner codec.Decoder
}

var _ codec.Decoder = (*Decoder)(nil)

// candidate constructs a codec.Decoder for one rung of the fallback chain.
// A non-nil error means "not available on this build/host", not a fatal
// condition — the chain moves to the next candidate.
type candidate func() (codec.Decoder, error)

func chain() []candidate {
	return []candidate{
		newNativeDecoder,
		newExternalDecoder,
		func() (codec.Decoder, error) { return &aacdec.Decoder{}, nil },
	}
}

// Configure tries each candidate in order, keeping the first that both
// constructs and configures without error.
func (d *Decoder) Configure(sampleRate, channels, bitDepth, frameLen int) error {
	var lastErr error

	for _, ctor := range chain() {
		dec, err := ctor()
		if err != nil {
			lastErr = err

			continue
		}

		if err := dec.Configure(sampleRate, channels, bitDepth, frameLen); err != nil {
			lastErr = err

			continue
		}

		d.inner = dec

		return nil
	}

	return fmt.Errorf("%w: %w", ErrNoDecoderAvailable, lastErr)
}

// OutputSize delegates to the selected decoder.
func (d *Decoder) OutputSize() int {
	return d.inner.OutputSize()
}

// Decode delegates to the selected decoder.
func (d *Decoder) Decode(in []byte) ([]byte, error) {
	return d.inner.Decode(in)
}

// Close releases the selected decoder's resources.
func (d *Decoder) Close() error {
	if d.inner == nil {
		return nil
	}

	return d.inner.Close()
}
