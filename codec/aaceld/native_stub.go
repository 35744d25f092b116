//go:build !with_fdkaac

package aaceld

import "github.com/mycophonic/raop/codec"

// newNativeDecoder reports unavailable when built without the with_fdkaac
// tag, letting Configure fall through to the external pipe or AAC-LC.
func newNativeDecoder() (codec.Decoder, error) {
	return nil, ErrNativeUnsupported
}
