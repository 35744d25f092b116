//go:build with_fairplay && !darwin

package aescrypt

// Native fair-play key unwrap requires macOS (darwin) and the Security
// framework. Remove the with_fairplay build tag on this platform.
func init() {
	fairplayUnwrapRequiresMacOS() // undefined: intentional compile error
}
