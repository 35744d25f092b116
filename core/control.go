package core

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/mycophonic/raop/aescrypt"
)

// controlTypeAudio is the out-of-band audio variant carried on the control
// socket during mirroring: type 0x56, payload at byte 4.
const controlTypeAudio = 0x56

// controlTypeSync is the sync-packet type.
const controlTypeSync = 0x54

// runControlLoop reads and dispatches packets arriving on the control
// socket: sync packets update the clock, audio packets are admitted to the
// buffer the same way as on the data socket.
func (c *Core) runControlLoop(ctx context.Context) {
	defer c.wg.Done()

	cipher, err := aescrypt.NewCipher(c.sess, c.unwrap)
	if err != nil {
		c.logger.Error("control loop: cipher init failed", "error", err)

		return
	}

	buf := make([]byte, maxPacketBytes)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.controlConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			c.logger.Debug("control loop: set deadline failed", "error", err)
		}

		n, _, err := c.controlConn.ReadFromUDP(buf)
		if err != nil {
			if isClosedConnErr(err) || ctx.Err() != nil {
				return
			}

			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			c.logger.Debug("control loop: read error", "error", err)

			continue
		}

		c.handleControlPacket(buf[:n], cipher)
	}
}

// handleControlPacket dispatches one packet read from the control socket:
// a sync packet updates the clock, an out-of-band audio packet (mirroring
// mode) is admitted to the buffer the same way as on the data socket.
func (c *Core) handleControlPacket(pkt []byte, cipher *aescrypt.Cipher) {
	if len(pkt) < 2 {
		return
	}

	typ := pkt[1] & 0x7F

	switch typ {
	case controlTypeAudio:
		if len(pkt) < 4 {
			return
		}

		if _, err := c.admit(pkt[4:], cipher); err != nil {
			c.logger.Debug("control loop: admit failed", "error", err)

			return
		}

		c.deliverBatch(true)

	case controlTypeSync:
		c.sync.Update(pkt)

	default:
		// ignore
	}
}
