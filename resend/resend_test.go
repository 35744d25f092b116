package resend_test

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mycophonic/raop/jitter"
	"github.com/mycophonic/raop/resend"
)

type fakeSender struct {
	sent []byte
	addr *net.UDPAddr
	err  error
}

func (f *fakeSender) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	f.sent = append([]byte(nil), b...)
	f.addr = addr

	return len(b), f.err
}

func TestRequestEmitsNACKForSingleGap(t *testing.T) {
	buf := jitter.New(16)
	buf.Admit(100, 0, 0, 0, 1, []byte{1})
	buf.Admit(101, 0, 0, 0, 1, []byte{1})
	buf.Admit(103, 0, 0, 0, 1, []byte{1})

	// Deliver 100 and 101 so the missing 102 is at the head of the window.
	_, _ = buf.Dequeue(false)
	_, _ = buf.Dequeue(false)

	var req resend.Requester
	sender := &fakeSender{}
	peer := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6001}

	sent, err := req.Request(buf, sender, peer)
	require.NoError(t, err)
	require.True(t, sent)
	require.Equal(t, peer, sender.addr)
	require.Len(t, sender.sent, 8)

	require.Equal(t, byte(0x80), sender.sent[0])
	require.Equal(t, byte(0x55|0x80), sender.sent[1])

	gapStart := uint16(sender.sent[4])<<8 | uint16(sender.sent[5])
	gapLen := uint16(sender.sent[6])<<8 | uint16(sender.sent[7])
	require.Equal(t, uint16(102), gapStart)
	require.Equal(t, uint16(1), gapLen)
}

func TestRequestNoGapNoSend(t *testing.T) {
	buf := jitter.New(16)
	buf.Admit(100, 0, 0, 0, 1, []byte{1})

	var req resend.Requester
	sender := &fakeSender{}

	sent, err := req.Request(buf, sender, &net.UDPAddr{})
	require.NoError(t, err)
	require.False(t, sent)
}

func TestSequenceIncrementsRegardlessOfSendFailure(t *testing.T) {
	buf := jitter.New(16)
	buf.Admit(100, 0, 0, 0, 1, []byte{1})
	buf.Admit(102, 0, 0, 0, 1, []byte{1})

	// Deliver 100 so the missing 101 is at the head of the window.
	_, _ = buf.Dequeue(false)

	var req resend.Requester
	sender := &fakeSender{err: errors.New("boom")}
	peer := &net.UDPAddr{}

	sent, err := req.Request(buf, sender, peer)
	require.Error(t, err)
	require.True(t, sent)

	first := uint16(sender.sent[2])<<8 | uint16(sender.sent[3])

	_, _ = req.Request(buf, sender, peer)
	second := uint16(sender.sent[2])<<8 | uint16(sender.sent[3])

	require.Equal(t, first+1, second)
}
