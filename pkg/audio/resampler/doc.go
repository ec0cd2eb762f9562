// Package resampler converts mono float64 PCM between sample rates using a
// pure Go SoX-style resampler (no CGO/FFI dependencies).
//
// Example usage:
//
//	out, err := resampler.Resample(samples, 44100, 22050)
//	if err != nil {
//	    return err
//	}
//
// The output length is always round(len(in) * dst / src) so that callers
// can rely on durations being preserved exactly.
package resampler
