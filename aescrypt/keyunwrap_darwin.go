//go:build with_fairplay && darwin

package aescrypt

/*
#cgo LDFLAGS: -framework Security
#include <stdint.h>

// fairplay_unwrap is an opaque 16-byte -> 16-byte transform supplied by the
// platform's pairing library at link time. The source device's actual
// "fair-play" routine is out of scope for this module; this cgo shim
// exists only so a real implementation can be linked in without touching
// the Go call sites.
extern int fairplay_unwrap(const uint8_t *key_message, int key_message_len,
                            const uint8_t *encrypted_key, uint8_t *out16);
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// DefaultUnwrapper recovers the plaintext AES content key via the linked
// native fair-play routine.
type DefaultUnwrapper struct{}

// Unwrap applies the platform key-unwrap routine.
func (DefaultUnwrapper) Unwrap(keyMessage, encryptedKey []byte) ([16]byte, error) {
	var out [16]byte
	if len(encryptedKey) != 16 {
		return out, fmt.Errorf("%w: encrypted key must be 16 bytes, got %d", ErrDecrypt, len(encryptedKey))
	}

	rc := C.fairplay_unwrap(
		(*C.uint8_t)(unsafe.Pointer(&keyMessage[0])), C.int(len(keyMessage)),
		(*C.uint8_t)(unsafe.Pointer(&encryptedKey[0])),
		(*C.uint8_t)(unsafe.Pointer(&out[0])),
	)
	if rc != 0 {
		return out, fmt.Errorf("%w: native unwrap failed (rc=%d)", ErrDecrypt, rc)
	}

	return out, nil
}
