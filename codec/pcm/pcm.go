// Package pcm implements the identity codec (FormatPCM): payload
// bytes pass straight through as interleaved LE signed PCM, used when the
// session negotiates no compression.
package pcm

import "github.com/mycophonic/raop/codec"

// Decoder is the no-op PCM "decoder".
type Decoder struct {
	frameBytes int
}

var _ codec.Decoder = (*Decoder)(nil)

// Configure records the expected frame size; Decode does not reshape input,
// it only reports the size callers should expect for silence substitution.
func (d *Decoder) Configure(_, channels, bitDepth, frameLen int) error {
	d.frameBytes = codec.OutputSize(frameLen, channels, bitDepth)

	return nil
}

// OutputSize returns the configured frame size in bytes.
func (d *Decoder) OutputSize() int {
	return d.frameBytes
}

// Decode returns in unchanged: PCM payloads need no transformation.
func (d *Decoder) Decode(in []byte) ([]byte, error) {
	return in, nil
}

// Close is a no-op.
func (d *Decoder) Close() error {
	return nil
}
