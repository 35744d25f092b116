// Package core wires an AirPlay audio session together: two UDP receive
// loops sharing one dejitter buffer, one clock synchronizer, and one
// decoder, each receiver owning an independent cipher.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mycophonic/raop"
	"github.com/mycophonic/raop/aescrypt"
	"github.com/mycophonic/raop/clocksync"
	"github.com/mycophonic/raop/codec"
	"github.com/mycophonic/raop/dump"
	"github.com/mycophonic/raop/jitter"
	"github.com/mycophonic/raop/metrics"
	"github.com/mycophonic/raop/resend"
	"github.com/mycophonic/raop/sink"
)

// maxPacketBytes bounds both the receive buffer size and the admit
// pipeline's length check.
const maxPacketBytes = 50_000

// readTimeout is the UDP read deadline; it bounds how long cancellation
// takes to be observed after the sockets are closed.
const readTimeout = 200 * time.Millisecond

// decoderSelector is the subset of codec.Selector the core depends on,
// broken out so tests can substitute a selector that returns a fake
// decoder instead of building a real codec.
type decoderSelector interface {
	Select(sess *raop.Session) (codec.Decoder, error)
}

// resendRequester is the subset of resend.Requester the core depends on,
// broken out so tests can observe or suppress NACK emission without a real
// control socket.
type resendRequester interface {
	Request(buf *jitter.Buffer, sender resend.ControlSender, peer *net.UDPAddr) (sent bool, err error)
}

// Core owns one AirPlay audio session: its sockets, buffer, clock state,
// decoder, and sink.
type Core struct {
	sess   *raop.Session
	unwrap raop.KeyUnwrapper
	logger *slog.Logger

	buf      *jitter.Buffer
	sync     *clocksync.State
	selector decoderSelector
	resender resendRequester
	snk      sink.Sink
	Metrics  *metrics.Counters
	dumper   *dump.Dumper

	decMu sync.Mutex // serializes Decode calls; decoder state carries across frames

	controlConn *net.UDPConn
	dataConn    *net.UDPConn

	wg sync.WaitGroup
}

// Options configures a new Core.
type Options struct {
	Session       *raop.Session
	Unwrap        raop.KeyUnwrapper
	ControlConn   *net.UDPConn
	DataConn      *net.UDPConn
	Sink          sink.Sink
	Logger        *slog.Logger
	MaxFrameBytes int    // preallocated PCM slot size; 0 uses a 16KiB default
	DumpDir       string // optional: directory for raw/pcm dumps (dump builds only)
}

// New constructs a Core ready to Run. The decoder is not selected until the
// first packet arrives: selection is lazy, one-time, and mutex-guarded.
func New(opts Options) *Core {
	maxFrameBytes := opts.MaxFrameBytes
	if maxFrameBytes == 0 {
		maxFrameBytes = 16 * 1024
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Core{
		sess:        opts.Session,
		unwrap:      opts.Unwrap,
		logger:      logger.With("subsystem", "audio-core", "session_id", opts.Session.ID),
		buf:         jitter.New(maxFrameBytes),
		sync:        clocksync.NewState(),
		selector:    &codec.Selector{},
		resender:    &resend.Requester{},
		snk:         opts.Sink,
		Metrics:     &metrics.Counters{},
		dumper:      dump.New(opts.DumpDir),
		controlConn: opts.ControlConn,
		dataConn:    opts.DataConn,
	}
}

// SelectedFormat implements metrics.FormatProvider: it reports the
// negotiated codec format once the session exists, regardless of whether a
// decoder has been selected yet.
func (c *Core) SelectedFormat() string {
	return c.sess.CodecFormat.String()
}

// Run starts both receive loops and blocks until ctx is cancelled or both
// loops exit. Cancellation closes both sockets, which is the primary
// mechanism by which the blocking reads unblock.
func (c *Core) Run(ctx context.Context) {
	c.wg.Add(2)

	go c.runControlLoop(ctx)
	go c.runDataLoop(ctx)

	go func() {
		<-ctx.Done()
		c.controlConn.Close()
		c.dataConn.Close()
	}()

	c.wg.Wait()
}

// Flush implements the externally-driven flush operation: it discards
// buffered audio and notifies the sink outside the buffer mutex.
func (c *Core) Flush(nextSeq int32) {
	sink.Flush(c.buf, c.snk, nextSeq)
}

func (c *Core) decoder() (codec.Decoder, error) {
	dec, err := c.selector.Select(c.sess)
	if err != nil {
		return nil, fmt.Errorf("core: select decoder: %w", err)
	}

	return dec, nil
}

// deliverBatch stamps each dequeued frame with its PTS and hands it to the
// sink, outside any mutex.
func (c *Core) deliverBatch(noResend bool) {
	for {
		frame, ok := c.buf.Dequeue(noResend)
		if !ok {
			return
		}

		c.snk.OnPCM(sink.Frame{
			Seq:      frame.Seq,
			PTSMicro: c.sync.PTSMicros(frame.RTPTimestamp, raop.SampleRate),
			PCM:      frame.PCM,
		})
	}
}

// isClosedConnErr reports whether err indicates the socket was closed out
// from under a blocking read, the expected cancellation path.
func isClosedConnErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
