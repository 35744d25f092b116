// Package aescrypt recovers the per-session AES content key and decrypts
// RTP audio payload bodies. Ciphers are stateful and strictly per-handler:
// the control loop and data loop each own an independent [Cipher] instance
// and must never share one.
package aescrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"fmt"

	"github.com/mycophonic/raop"
)

// Cipher decrypts AES-CBC audio payload bodies for one receive loop. The
// zero value is not usable; construct with [NewCipher].
type Cipher struct {
	block  cipher.Block
	iv     [16]byte
	cbcKey [16]byte
	ready  bool
}

// NewCipher derives the CBC key for the session (SHA-512 of the plaintext
// content key concatenated with the ECDH shared secret, truncated to 16
// bytes) and returns a ready-to-use, receiver-owned [Cipher].
func NewCipher(sess *raop.Session, unwrap raop.KeyUnwrapper) (*Cipher, error) {
	plaintextKey, err := sess.DecryptedKey(unwrap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	h := sha512.New()
	h.Write(plaintextKey[:])
	h.Write(sess.SharedSecret[:])
	digest := h.Sum(nil)

	c := &Cipher{iv: sess.IV}
	copy(c.cbcKey[:], digest[:16])

	block, err := aes.NewCipher(c.cbcKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	c.block = block
	c.ready = true

	return c, nil
}

// Decrypt decrypts the leading floor(len(payload)/16)*16 bytes of payload
// in place using the session IV (reset for every packet, never chained)
// and returns the same backing slice. Trailing 1-15 residual bytes are left
// as plaintext; the upstream protocol never encrypts a partial block.
func (c *Cipher) Decrypt(payload []byte) ([]byte, error) {
	if !c.ready {
		return nil, fmt.Errorf("%w: cipher not initialized", ErrDecrypt)
	}

	n := (len(payload) / aes.BlockSize) * aes.BlockSize
	if n == 0 {
		return payload, nil
	}

	mode := cipher.NewCBCDecrypter(c.block, c.iv[:])
	mode.CryptBlocks(payload[:n], payload[:n])

	return payload, nil
}
