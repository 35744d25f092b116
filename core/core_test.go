package core

import (
	"errors"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mycophonic/raop"
	"github.com/mycophonic/raop/aescrypt"
	"github.com/mycophonic/raop/codec"
	"github.com/mycophonic/raop/jitter"
	"github.com/mycophonic/raop/resend"
	"github.com/mycophonic/raop/sink"
)

type fakeUnwrapper struct{ key [16]byte }

func (f fakeUnwrapper) Unwrap(_, _ []byte) ([16]byte, error) { return f.key, nil }

func newTestSession() *raop.Session {
	return &raop.Session{
		ID:           "test",
		EncryptedKey: []byte{1},
		KeyMessage:   []byte{2},
		SharedSecret: [32]byte{3},
		CodecFormat:  raop.FormatPCM,
	}
}

func newTestCipher(t *testing.T) *aescrypt.Cipher {
	t.Helper()

	cipher, err := aescrypt.NewCipher(newTestSession(), fakeUnwrapper{})
	require.NoError(t, err)

	return cipher
}

// fakeDecoder lets tests force a decode outcome without exercising a real
// codec.
type fakeDecoder struct {
	outputSize int
	decodeErr  error
	decoded    [][]byte
}

func (d *fakeDecoder) Configure(_, _, _, _ int) error { return nil }
func (d *fakeDecoder) OutputSize() int                { return d.outputSize }

func (d *fakeDecoder) Decode(in []byte) ([]byte, error) {
	d.decoded = append(d.decoded, in)

	if d.decodeErr != nil {
		return nil, d.decodeErr
	}

	return in, nil
}

func (d *fakeDecoder) Close() error { return nil }

type fakeSelector struct {
	dec *fakeDecoder
	err error
}

func (s *fakeSelector) Select(_ *raop.Session) (codec.Decoder, error) {
	return s.dec, s.err
}

type fakeSink struct {
	frames  []sink.Frame
	flushed int
}

func (s *fakeSink) OnPCM(frame sink.Frame) { s.frames = append(s.frames, frame) }
func (s *fakeSink) OnFlush()               { s.flushed++ }

type fakeResender struct {
	calls int
	peers []*net.UDPAddr
	sent  bool
	err   error
}

func (r *fakeResender) Request(_ *jitter.Buffer, _ resend.ControlSender, peer *net.UDPAddr) (bool, error) {
	r.calls++
	r.peers = append(r.peers, peer)

	return r.sent, r.err
}

func newTestCore(t *testing.T, dec *fakeDecoder) (*Core, *fakeSink, *fakeResender) {
	t.Helper()

	snk := &fakeSink{}
	resender := &fakeResender{}

	c := New(Options{
		Session: newTestSession(),
		Unwrap:  fakeUnwrapper{},
		Sink:    snk,
		Logger:  slog.Default(),
	})
	c.selector = &fakeSelector{dec: dec}
	c.resender = resender

	return c, snk, resender
}

func rtpPacket(seq uint16, rtpTS uint32, body []byte) []byte {
	pkt := make([]byte, 12+len(body))
	pkt[0] = 0x80
	pkt[1] = 0x60
	pkt[2] = byte(seq >> 8)
	pkt[3] = byte(seq)
	pkt[4] = byte(rtpTS >> 24)
	pkt[5] = byte(rtpTS >> 16)
	pkt[6] = byte(rtpTS >> 8)
	pkt[7] = byte(rtpTS)
	copy(pkt[12:], body)

	return pkt
}

func TestAdmitKeepaliveShortCircuitsDecodeAndBuffer(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4}
	c, _, _ := newTestCore(t, dec)
	cipher := newTestCipher(t)

	pkt := make([]byte, keepaliveLen)
	copy(pkt[12:16], keepaliveTrailer[:])

	result, err := c.admit(pkt, cipher)
	require.NoError(t, err)
	require.Equal(t, jitter.Admitted, result)
	require.Empty(t, dec.decoded, "decoder must not be invoked for a keepalive")

	first, last, empty := c.buf.Snapshot()
	require.True(t, empty, "keepalive must not occupy a buffer slot")
	require.Zero(t, first)
	require.Zero(t, last)
}

func TestAdmitDecodeErrorSubstitutesSilence(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4, decodeErr: errors.New("boom")}
	c, _, _ := newTestCore(t, dec)
	cipher := newTestCipher(t)

	pkt := rtpPacket(10, 3520, []byte{1, 2, 3})

	result, err := c.admit(pkt, cipher)
	require.NoError(t, err)
	require.Equal(t, jitter.Admitted, result)
	require.Equal(t, uint64(1), c.Metrics.DecodeErrors.Load())
	require.Equal(t, uint64(1), c.Metrics.SilenceSubstitutions.Load())

	frame, ok := c.buf.Dequeue(false)
	require.True(t, ok)
	require.Equal(t, make([]byte, dec.outputSize), frame.PCM)
}

func TestAdmitRejectsUndersizedPacket(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4}
	c, _, _ := newTestCore(t, dec)
	cipher := newTestCipher(t)

	_, err := c.admit([]byte{1, 2, 3}, cipher)
	require.Error(t, err)
}

func TestHandleControlPacketAudioOffsetFourAdmitsToBuffer(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4}
	c, snk, _ := newTestCore(t, dec)
	cipher := newTestCipher(t)

	inner := rtpPacket(20, 8800, []byte{9, 9})

	envelope := make([]byte, 4+len(inner))
	envelope[0] = 0x80
	envelope[1] = controlTypeAudio
	copy(envelope[4:], inner)

	c.handleControlPacket(envelope, cipher)

	require.Len(t, snk.frames, 1)
	require.Equal(t, uint16(20), snk.frames[0].Seq)
}

func TestHandleControlPacketSyncUpdatesClockNotBuffer(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4}
	c, snk, _ := newTestCore(t, dec)
	cipher := newTestCipher(t)

	sync := make([]byte, 20)
	sync[1] = controlTypeSync

	c.handleControlPacket(sync, cipher)

	require.Empty(t, snk.frames)
	_, _, empty := c.buf.Snapshot()
	require.True(t, empty)
}

func TestHandleDataPacketRequestsResendOnlyWhenAdmitted(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4}
	c, _, resender := newTestCore(t, dec)
	cipher := newTestCipher(t)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6000}

	// Fresh sequence: admit succeeds, resend is requested against the
	// packet's own source address.
	c.handleDataPacket(rtpPacket(100, 0, []byte{1}), cipher, addr)
	require.Equal(t, 1, resender.calls)
	require.Equal(t, addr, resender.peers[0])

	// Seed the buffer directly with an already-available slot, then
	// re-admit the same sequence through the packet path: buf.Admit
	// reports Duplicate, so no further resend should be requested.
	c.buf.Admit(102, 0, 0, 102*352, 1, []byte{7, 7})
	c.handleDataPacket(rtpPacket(102, 102*352, []byte{7, 7}), cipher, addr)
	require.Equal(t, 1, resender.calls, "duplicate admit must not trigger a resend request")
}

func TestHandleDataPacketSkipsResendWhileMirroring(t *testing.T) {
	dec := &fakeDecoder{outputSize: 4}
	c, _, resender := newTestCore(t, dec)
	c.sess.IsMirroring = true
	cipher := newTestCipher(t)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6000}

	c.handleDataPacket(rtpPacket(200, 0, []byte{1}), cipher, addr)

	require.Zero(t, resender.calls, "mirroring sessions never request a resend")
}
