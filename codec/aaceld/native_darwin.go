//go:build with_fdkaac && darwin

package aaceld

/*
#cgo LDFLAGS: -lfdk-aac
#include <fdk-aac/aacdecoder_lib.h>
#include <stdlib.h>
#include <string.h>

// eld_open configures an AAC-ELD raw decoder from a synthesized
// AudioSpecificConfig, mirroring how a real ELD stream is brought up
// without a container (RAOP never ships one).
static HANDLE_AACDECODER eld_open(const unsigned char *asc, unsigned int ascLen) {
	HANDLE_AACDECODER dec = aacDecoder_Open(TT_MP4_RAW, 1);
	if (!dec) return NULL;

	unsigned char *bufs[1] = { (unsigned char *)asc };
	unsigned int lens[1] = { ascLen };

	if (aacDecoder_ConfigRaw(dec, bufs, lens) != AAC_DEC_OK) {
		aacDecoder_Close(dec);
		return NULL;
	}

	return dec;
}

// eld_decode feeds one ELD access unit and pulls the decoded frame.
// Returns the sample count written to out, or -1 on error.
static int eld_decode(HANDLE_AACDECODER dec, const unsigned char *in, unsigned int inLen,
	short *out, unsigned int outCap) {
	unsigned char *bufs[1] = { (unsigned char *)in };
	unsigned int lens[1] = { inLen };
	unsigned int valid = inLen;

	if (aacDecoder_Fill(dec, bufs, lens, &valid) != AAC_DEC_OK) {
		return -1;
	}

	AAC_DECODER_ERROR err = aacDecoder_DecodeFrame(dec, out, (int)outCap, 0);
	if (err != AAC_DEC_OK) {
		return -1;
	}

	CStreamInfo *info = aacDecoder_GetStreamInfo(dec);
	if (!info) return -1;

	return info->frameSize * info->numChannels;
}
*/
import "C"

import (
	"fmt"

	"github.com/mycophonic/raop/codec"
)

type nativeDecoder struct {
	dec      C.HANDLE_AACDECODER
	channels int
	outCap   int
}

func newNativeDecoder() (codec.Decoder, error) {
	return &nativeDecoder{}, nil
}

func (n *nativeDecoder) Configure(sampleRate, channels, _, frameLen int) error {
	asc := buildELDASC(sampleRate, channels)

	cAsc := C.CBytes(asc)
	defer C.free(cAsc)

	dec := C.eld_open((*C.uchar)(cAsc), C.uint(len(asc)))
	if dec == nil {
		return fmt.Errorf("aaceld: native: fdkaac open/configure failed")
	}

	n.dec = dec
	n.channels = channels
	n.outCap = frameLen * channels

	return nil
}

func (n *nativeDecoder) OutputSize() int {
	return n.outCap * 2
}

func (n *nativeDecoder) Decode(in []byte) ([]byte, error) {
	out := make([]C.short, n.outCap)

	cIn := C.CBytes(in)
	defer C.free(cIn)

	n2 := C.eld_decode(n.dec, (*C.uchar)(cIn), C.uint(len(in)), &out[0], C.uint(n.outCap))
	if n2 < 0 {
		return nil, fmt.Errorf("aaceld: native: decode failed")
	}

	pcm := make([]byte, int(n2)*2)
	for i := range int(n2) {
		s := int16(out[i])
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	return pcm, nil
}

func (n *nativeDecoder) Close() error {
	if n.dec != nil {
		C.aacDecoder_Close(n.dec)
		n.dec = nil
	}

	return nil
}

// buildELDASC synthesizes a minimal AAC-ELD AudioSpecificConfig: object
// type 39 (ER AAC ELD), no SBR signaling, low-delay frame length (480).
func buildELDASC(sampleRate, channels int) []byte {
	const aacObjectTypeELD = 39

	freqIdx := samplingFreqIndexELD(sampleRate)
	chanCfg := uint8(channels) //nolint:gosec // 1 or 2 in practice

	// Object types above 30 are written as the 5-bit escape value 31 plus a
	// 6-bit (type - 32) extension. The ELDSpecificConfig that follows sets
	// frameLengthFlag (480-sample frames); the resilience flags, the
	// low-delay SBR flag and the extension type (ELDEXT_TERM) stay zero.
	v := uint32(31)<<27 | uint32(aacObjectTypeELD-32)<<21 |
		uint32(freqIdx)<<17 | uint32(chanCfg)<<13 | 1<<12

	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func samplingFreqIndexELD(sampleRate int) uint8 {
	table := []int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}
	for i, rate := range table {
		if rate == sampleRate {
			return uint8(i) //nolint:gosec // table index, bounded 0-12
		}
	}

	return 4
}
