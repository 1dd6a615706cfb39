//go:build !gocv

package omr

// Built without the gocv tag: there is no native backend.

func probeNative() error { return ErrNativeUnavailable }

func newNativeBackend(Profile) Backend { return nil }

// NativeVersion returns the OpenCV version, empty without the gocv tag.
func NativeVersion() string { return "" }
