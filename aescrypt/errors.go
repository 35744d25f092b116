package aescrypt

import "errors"

var (
	// ErrKeyUnwrapUnavailable is returned by the default key unwrapper: the
	// source device's "fair-play" unwrap routine is out of scope for this
	// module and must be supplied by a build-tagged implementation.
	ErrKeyUnwrapUnavailable = errors.New("aescrypt: fairplay key unwrap not available in this build")

	// ErrDecrypt covers any failure recovering or applying the content key:
	// wrong key length, missing session material, or a CBC decrypt fault.
	// The caller drops the packet and continues the loop.
	ErrDecrypt = errors.New("aescrypt: decrypt failed")
)
