//go:build with_fdkaac && !darwin

package aaceld

// Native FDK-AAC-ELD decoding requires macOS (darwin) and libfdk-aac.
// Remove the with_fdkaac build tag on this platform.
func init() {
	fdkaacDecoderRequiresMacOS() // undefined: intentional compile error
}
