package aaceld

import "errors"

// ErrNativeUnsupported is returned by the native candidate on builds or
// platforms lacking an FDK-AAC-ELD binding.
var ErrNativeUnsupported = errors.New("aaceld: native decoder not built for this platform")
