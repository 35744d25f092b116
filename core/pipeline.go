package core

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mycophonic/raop/aescrypt"
	"github.com/mycophonic/raop/jitter"
)

// minPacketBytes is the smallest packet the admit pipeline accepts: a
// 12-byte RTP-like header with no payload.
const minPacketBytes = 12

// keepaliveLen and keepaliveTrailer identify the no-data keepalive marker:
// exactly 16 bytes whose last four equal this trailer.
const keepaliveLen = 16

var keepaliveTrailer = [4]byte{0x00, 0x68, 0x34, 0x00}

// admit runs the common pipeline shared by both receivers: bounds
// check, keepalive short-circuit, decrypt, decode, admit to the ring.
// Decryption and decoding run outside the buffer mutex; only buf.Admit
// itself takes it.
func (c *Core) admit(pkt []byte, cipher *aescrypt.Cipher) (jitter.AdmitResult, error) {
	if len(pkt) < minPacketBytes || len(pkt) > maxPacketBytes {
		return jitter.Rejected, fmt.Errorf("core: packet length %d out of bounds", len(pkt))
	}

	if len(pkt) == keepaliveLen && bytes.Equal(pkt[12:16], keepaliveTrailer[:]) {
		return jitter.Admitted, nil
	}

	flags := pkt[0]
	typ := pkt[1] & 0x7F
	seq := binary.BigEndian.Uint16(pkt[2:4])
	rtpTS := binary.BigEndian.Uint32(pkt[4:8])
	ssrc := binary.BigEndian.Uint32(pkt[8:12])
	body := pkt[12:]

	c.dumper.Raw(seq, body)

	plain, err := cipher.Decrypt(body)
	if err != nil {
		return jitter.Rejected, fmt.Errorf("core: decrypt: %w", err)
	}

	dec, err := c.decoder()
	if err != nil {
		return jitter.Rejected, err
	}

	c.decMu.Lock()
	pcm, decErr := dec.Decode(plain)
	c.decMu.Unlock()

	if decErr != nil {
		c.logger.Warn("decode error, substituting silence", "seq", seq, "error", decErr)
		pcm = make([]byte, dec.OutputSize())
		c.Metrics.DecodeErrors.Add(1)
		c.Metrics.SilenceSubstitutions.Add(1)
	}

	c.dumper.PCM(seq, pcm)

	result := c.buf.Admit(seq, flags, typ, rtpTS, ssrc, pcm)
	c.countAdmit(result)

	return result, nil
}

func (c *Core) countAdmit(result jitter.AdmitResult) {
	switch result {
	case jitter.Admitted:
		c.Metrics.Admitted.Add(1)
	case jitter.Duplicate:
		c.Metrics.Duplicate.Add(1)
	case jitter.Old:
		c.Metrics.Old.Add(1)
	case jitter.Rejected:
		c.Metrics.Rejected.Add(1)
	}
}
