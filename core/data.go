package core

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/mycophonic/raop/aescrypt"
	"github.com/mycophonic/raop/jitter"
)

// runDataLoop reads and admits packets arriving on the data socket, then
// requests a resend for any leading gap left by the admit.
func (c *Core) runDataLoop(ctx context.Context) {
	defer c.wg.Done()

	cipher, err := aescrypt.NewCipher(c.sess, c.unwrap)
	if err != nil {
		c.logger.Error("data loop: cipher init failed", "error", err)

		return
	}

	buf := make([]byte, maxPacketBytes)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.dataConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			c.logger.Debug("data loop: set deadline failed", "error", err)
		}

		n, addr, err := c.dataConn.ReadFromUDP(buf)
		if err != nil {
			if isClosedConnErr(err) || ctx.Err() != nil {
				return
			}

			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			c.logger.Debug("data loop: read error", "error", err)

			continue
		}

		c.handleDataPacket(buf[:n], cipher, addr)
	}
}

// handleDataPacket admits one packet read from the data socket, delivers
// whatever frames that unblocks, and — outside mirroring mode, and only
// when the packet was freshly admitted rather than a duplicate, stale, or
// rejected one — requests a resend for any leading gap still open.
func (c *Core) handleDataPacket(pkt []byte, cipher *aescrypt.Cipher, addr *net.UDPAddr) {
	result, err := c.admit(pkt, cipher)
	if err != nil {
		c.logger.Debug("data loop: admit failed", "error", err)

		return
	}

	noResend := c.sess.IsMirroring
	c.deliverBatch(noResend)

	if !c.sess.IsMirroring && result == jitter.Admitted {
		c.requestResend(addr)
	}
}

// requestResend addresses the NACK to addr, the source of the data packet
// that triggered it: the only peer address guaranteed to be current.
func (c *Core) requestResend(addr *net.UDPAddr) {
	sent, err := c.resender.Request(c.buf, c.controlConn, addr)
	if err != nil {
		c.logger.Debug("resend: send failed", "error", err)
		c.Metrics.ResendsFailed.Add(1)
	}

	if sent {
		c.logger.Debug("resend: NACK sent", "peer", addr)
		c.Metrics.ResendsSent.Add(1)
	}
}
