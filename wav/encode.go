// Package wav writes decoded PCM out as a standard WAV file, for the
// raopd WAV sink and any other collaborator that wants audio on disk instead
// of a live sink.Sink.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/raop"
)

// WAV format constants.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// GUID for PCM in WAVEFORMATEXTENSIBLE.
var wavGUIDPCM = [16]byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
}

var ErrInvalidBitDepth = errors.New("invalid bit depth")

// Encode writes PCM samples as a WAV file.
func Encode(w io.Writer, pcm []byte, format raop.PCMFormat) error {
	switch format.BitDepth {
	case 16, 24, 32:
		// Valid
	default:
		return fmt.Errorf("%w: %d (must be 16, 24, or 32)", ErrInvalidBitDepth, format.BitDepth)
	}

	channels := uint16(format.Channels)
	sampleRate := uint32(format.SampleRate)
	bitsPerSample := uint16(format.BitDepth)
	byteRate := sampleRate * uint32(channels) * uint32(bitsPerSample) / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(len(pcm))

	// Use WAVEFORMATEXTENSIBLE for >2 channels or >16 bits
	useExtensible := channels > 2 || bitsPerSample > 16

	if useExtensible {
		return writeWAVExtensible(w, pcm, channels, sampleRate, bitsPerSample, byteRate, blockAlign, dataSize)
	}

	return writeWAVSimple(w, pcm, channels, sampleRate, bitsPerSample, byteRate, blockAlign, dataSize)
}

func writeWAVSimple(
	w io.Writer,
	pcm []byte,
	channels uint16,
	sampleRate uint32,
	bitsPerSample uint16,
	byteRate uint32,
	blockAlign uint16,
	dataSize uint32,
) error {
	var header [44]byte

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], dataSize+36)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing PCM data: %w", err)
	}

	return nil
}

func writeWAVExtensible(
	w io.Writer,
	pcm []byte,
	channels uint16,
	sampleRate uint32,
	bitsPerSample uint16,
	byteRate uint32,
	blockAlign uint16,
	dataSize uint32,
) error {
	// WAVEFORMATEXTENSIBLE: fmt chunk is 40 bytes instead of 16
	fmtChunkSize := uint32(40)
	headerSize := 12 + 8 + fmtChunkSize + 8 // RIFF + fmt header + fmt data + data header
	fileSize := headerSize + dataSize - 8   // -8 for RIFF header not counted

	var header [68]byte // 12 + 8 + 40 + 8

	// RIFF header
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(fileSize))
	copy(header[8:12], "WAVE")

	// fmt chunk header
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], fmtChunkSize)

	// WAVEFORMATEX part
	binary.LittleEndian.PutUint16(header[20:22], wavFormatExtensible)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	binary.LittleEndian.PutUint16(header[36:38], 22) // cbSize: extra bytes after WAVEFORMATEX

	// WAVEFORMATEXTENSIBLE extension
	binary.LittleEndian.PutUint16(header[38:40], bitsPerSample) // validBitsPerSample
	binary.LittleEndian.PutUint32(header[40:44], channelMask(channels))
	copy(header[44:60], wavGUIDPCM[:])

	// data chunk header
	copy(header[60:64], "data")
	binary.LittleEndian.PutUint32(header[64:68], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing PCM data: %w", err)
	}

	return nil
}

// channelMask returns standard channel mask for common configurations.
func channelMask(channels uint16) uint32 {
	switch channels {
	case 1:
		return 0x4 // FC
	case 2:
		return 0x3 // FL | FR
	case 4:
		return 0x33 // FL | FR | BL | BR
	case 6:
		return 0x3F // FL | FR | FC | LFE | BL | BR (5.1)
	case 8:
		return 0x63F // 7.1
	default:
		return 0 // Unspecified
	}
}
