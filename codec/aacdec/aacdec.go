// Package aacdec implements AAC-MAIN/AAC-LC decode (FormatAAC) on top of
// the pure-Go FAAD2 binding, and serves as the final fallback target for
// AAC-ELD when neither a native nor an external LATM decoder is available.
// AirPlay never hands us a real AudioSpecificConfig out of band, so
// Configure synthesizes one from the negotiated sample rate and channel
// count.
package aacdec

import (
	"context"
	"fmt"

	faad2 "github.com/llehouerou/go-faad2"

	"github.com/mycophonic/raop/codec"
)

// aacObjectTypeLC is MPEG-4 Audio Object Type 2 (AAC LC), the profile every
// AirPlay AAC/AAC-ELD-fallback stream decodes as once reduced to raw AAC.
const aacObjectTypeLC = 2

// Decoder wraps a faad2.Decoder behind the codec.Decoder capability.
type Decoder struct {
	dec        *faad2.Decoder
	channels   int
	bitDepth   int
	frameBytes int
}

var _ codec.Decoder = (*Decoder)(nil)

// Configure builds a synthetic AudioSpecificConfig for sampleRate/channels
// and initializes the underlying FAAD2 decoder.
func (d *Decoder) Configure(sampleRate, channels, bitDepth, frameLen int) error {
	ctx := context.Background()

	dec, err := faad2.NewDecoder(ctx)
	if err != nil {
		return fmt.Errorf("aacdec: new decoder: %w", err)
	}

	asc := buildASC(sampleRate, channels)

	if err := dec.Init(ctx, asc); err != nil {
		return fmt.Errorf("aacdec: init: %w", err)
	}

	d.dec = dec
	d.channels = channels
	d.bitDepth = bitDepth
	d.frameBytes = codec.OutputSize(frameLen, channels, bitDepth)

	return nil
}

// OutputSize returns the expected decoded frame size in bytes.
func (d *Decoder) OutputSize() int {
	return d.frameBytes
}

// Decode decodes one raw AAC frame (ADTS/LATM framing already stripped) into
// interleaved LE 16-bit signed PCM.
func (d *Decoder) Decode(in []byte) ([]byte, error) {
	samples, err := d.dec.Decode(context.Background(), in)
	if err != nil {
		return nil, fmt.Errorf("aacdec: decode: %w", err)
	}

	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}

	return out, nil
}

// Close releases the underlying WASM decoder instance.
func (d *Decoder) Close() error {
	if d.dec == nil {
		return nil
	}

	return d.dec.Close(context.Background())
}

// samplingFreqIndex is the MPEG-4 Audio sampling-frequency table (ISO/IEC
// 14496-3 Table 1.16). AirPlay only ever negotiates 44100.
func samplingFreqIndex(sampleRate int) uint8 {
	table := []int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}
	for i, rate := range table {
		if rate == sampleRate {
			return uint8(i) //nolint:gosec // table index, bounded 0-12
		}
	}

	return 4 // 44100 Hz, the AirPlay default
}

// buildASC synthesizes a minimal 2-byte AudioSpecificConfig (object type AAC
// LC, no SBR/PS, no extension) since AirPlay carries no esds/ASC out of
// band the way an M4A container would.
func buildASC(sampleRate, channels int) []byte {
	freqIdx := samplingFreqIndex(sampleRate)
	chanCfg := uint8(channels) //nolint:gosec // 1 or 2 in practice

	v := uint16(aacObjectTypeLC)<<11 | uint16(freqIdx)<<7 | uint16(chanCfg)<<3

	return []byte{byte(v >> 8), byte(v)}
}
