package alac

import (
	"fmt"

	"github.com/mycophonic/raop/codec"
)

// RAOP defaults for the ALAC parameters a magic cookie would otherwise
// carry. These match the values AirPlay source devices negotiate in
// practice (no per-packet cost/gain tuning is exposed over RTSP).
const (
	defaultPB            = 40
	defaultMB            = 10
	defaultKB            = 14
	defaultMaxRun        = 255
	defaultMaxFrameBytes = 0
	defaultAvgBitRate    = 0
)

// Adapter wraps [Decoder] to satisfy codec.Decoder: one-time Configure from
// plain (sampleRate, channels, bitDepth, frameLen) rather than a magic
// cookie, then per-packet Decode.
type Adapter struct {
	dec *Decoder
}

var _ codec.Decoder = (*Adapter)(nil)

// Configure builds an ALAC [Config] from the given parameters (using the
// RAOP defaults above for the fields a cookie would otherwise supply) and
// constructs the underlying decoder.
func (a *Adapter) Configure(sampleRate, channels, bitDepth, frameLen int) error {
	cfg := Config{
		FrameLength:   uint32(frameLen), //nolint:gosec // caller-provided, bounded by RTP frame sizes
		BitDepth:      uint8(bitDepth),  //nolint:gosec // validated by ToBitDepth below
		NumChannels:   uint8(channels),  //nolint:gosec // 1 or 2 in practice
		PB:            defaultPB,
		MB:            defaultMB,
		KB:            defaultKB,
		MaxRun:        defaultMaxRun,
		MaxFrameBytes: defaultMaxFrameBytes,
		AvgBitRate:    defaultAvgBitRate,
		SampleRate:    uint32(sampleRate), //nolint:gosec // fixed at 44100 in practice
	}

	dec, err := NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("alac: configure: %w", err)
	}

	a.dec = dec

	return nil
}

// OutputSize returns bytes per decoded frame for the configured format.
func (a *Adapter) OutputSize() int {
	format := a.dec.Format()

	return int(a.dec.config.FrameLength) * int(format.Channels) * format.BitDepth.BytesPerSample()
}

// Decode decodes one ALAC packet.
func (a *Adapter) Decode(in []byte) ([]byte, error) {
	return a.dec.DecodePacket(in)
}

// Close is a no-op: the ALAC decoder holds no resources beyond Go memory.
func (a *Adapter) Close() error {
	return nil
}
