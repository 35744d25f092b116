package raop

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// CodecFormat identifies the advertised audio format of a session, as
// negotiated out-of-band by the RTSP control channel.
type CodecFormat uint8

// Supported audio formats.
const (
	FormatUnknown CodecFormat = iota
	FormatALAC
	FormatAAC
	FormatAACELD
	FormatPCM
)

// String returns the human-readable name of the format.
func (f CodecFormat) String() string {
	switch f {
	case FormatALAC:
		return "ALAC"
	case FormatAAC:
		return "AAC"
	case FormatAACELD:
		return "AAC-ELD"
	case FormatPCM:
		return "PCM"
	case FormatUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// KeyUnwrapper recovers the plaintext 16-byte AES content key from a
// session's encrypted key and key-message blob. The concrete "fair-play"
// unwrap routine used by real source devices is out of scope for this
// module; implementations are supplied at build time (see package
// aescrypt for the default stub and the darwin cgo variant).
type KeyUnwrapper interface {
	Unwrap(keyMessage, encryptedKey []byte) ([16]byte, error)
}

// Session is the external-collaborator record supplied before the audio
// ports open: key material, a shared secret from the pairing ECDH, the
// advertised codec identity, and per-frame hints. It is treated as
// immutable after first use, except for the once-computed decrypted key
// cache below.
type Session struct {
	ID           string
	EncryptedKey []byte
	IV           [16]byte
	SharedSecret [32]byte
	KeyMessage   []byte

	CodecFormat     CodecFormat
	FramesPerPacket int // samples-per-frame hint; 0 means "use codec default"
	CompressionType int // fallback selector when CodecFormat is FormatUnknown
	IsMirroring     bool

	decryptedKey atomic.Pointer[[16]byte]
	unwrapOnce   sync.Once
	unwrapErr    error
}

var errMissingKeyMaterial = fmt.Errorf("raop: session missing key material")

// DecryptedKey returns the plaintext AES content key, recovering it via
// unwrap on first call and caching the result on the session. The unwrap
// itself runs at most once per session regardless of how many receivers
// call this concurrently; once published, reads never take a lock.
func (s *Session) DecryptedKey(unwrap KeyUnwrapper) ([16]byte, error) {
	if cached := s.decryptedKey.Load(); cached != nil {
		return *cached, nil
	}

	s.unwrapOnce.Do(func() {
		if len(s.EncryptedKey) == 0 || len(s.KeyMessage) == 0 {
			s.unwrapErr = errMissingKeyMaterial
			return
		}

		key, err := unwrap.Unwrap(s.KeyMessage, s.EncryptedKey)
		if err != nil {
			s.unwrapErr = fmt.Errorf("raop: unwrap key: %w", err)
			return
		}

		s.decryptedKey.Store(&key)
	})

	if s.unwrapErr != nil {
		return [16]byte{}, s.unwrapErr
	}

	return *s.decryptedKey.Load(), nil
}
