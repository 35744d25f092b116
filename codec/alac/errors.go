package alac

import "errors"

var (
	errInvalidCookie      = errors.New("alac: invalid magic cookie")
	errUnsupportedVersion = errors.New("alac: unsupported compatible version")
	errUnsupportedElement = errors.New("alac: unsupported element type (CCE/PCE)")
	errInvalidHeader      = errors.New("alac: invalid frame header")
	errInvalidShift       = errors.New("alac: invalid bytesShifted value")
	errBitstreamOverrun   = errors.New("alac: bitstream overrun")
	errSampleOverrun      = errors.New("alac: sample count exceeds buffer")
	errBitDepth           = errors.New("alac: unsupported bit depth")
)
