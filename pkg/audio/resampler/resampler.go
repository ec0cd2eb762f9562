package resampler

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono samples from srcRate to dstRate. When the rates are
// equal the input is returned unchanged.
func Resample(samples []float64, srcRate, dstRate int) ([]float64, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(samples) == 0 {
		return samples, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}

	out, err := r.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}

	return fitLength(out, OutputLength(len(samples), srcRate, dstRate)), nil
}

// OutputLength returns the number of samples Resample produces for n input
// samples.
func OutputLength(n, srcRate, dstRate int) int {
	return int(math.Round(float64(n) * float64(dstRate) / float64(srcRate)))
}

// fitLength truncates or zero-pads s to exactly n samples. The filter delay
// of the resampler can leave the tail short.
func fitLength(s []float64, n int) []float64 {
	if len(s) == n {
		return s
	}
	if len(s) > n {
		return s[:n]
	}
	out := make([]float64, n)
	copy(out, s)
	return out
}
