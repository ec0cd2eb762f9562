// Package spectrogram computes fixed-shape time-frequency representations of
// mono PCM audio: a linear power spectrogram or a mel spectrogram.
//
// Output matrices are laid out frequency-major, [bins][frames], the
// orientation training code written against librosa expects. Values are
// power in decibels.
//
// Default parameters:
//
//	SampleRate: 22050
//	FFTSize:     2048
//	HopSize:      512 (FFTSize / 4)
//	NumMels:      128
//	LowFreq:        0
//	HighFreq:   11025 (Nyquist)
package spectrogram

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Kind selects the representation produced by an Extractor.
type Kind string

const (
	// Linear is the STFT power spectrogram, FFTSize/2+1 bins.
	Linear Kind = "spectrogram"
	// Mel is the mel-warped power spectrogram, NumMels bins.
	Mel Kind = "melspectrogram"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Linear, Mel:
		return k, nil
	}
	return "", fmt.Errorf("spectrogram: unknown kind %q (want %q or %q)", s, Linear, Mel)
}

// floorPower keeps log10 finite on silent frames.
const floorPower = 1e-10

// Config controls extraction parameters.
type Config struct {
	Kind       Kind
	SampleRate int     // Hz (default 22050)
	FFTSize    int     // window and FFT length (default 2048)
	HopSize    int     // hop in samples; 0 means FFTSize/4
	NumMels    int     // mel bins (default 128), ignored for Linear
	LowFreq    float64 // lowest mel frequency in Hz (default 0)
	HighFreq   float64 // highest mel frequency in Hz; 0 means Nyquist
	Normalize  bool    // apply per-bin mean/variance normalisation
}

// DefaultConfig returns the mel spectrogram configuration used for dataset
// builds.
func DefaultConfig() Config {
	return Config{
		Kind:       Mel,
		SampleRate: 22050,
		FFTSize:    2048,
		NumMels:    128,
	}
}

// Hop returns the effective hop size.
func (c Config) Hop() int {
	if c.HopSize > 0 {
		return c.HopSize
	}
	return c.FFTSize / 4
}

// Bins returns the number of rows in an extracted matrix.
func (c Config) Bins() int {
	if c.Kind == Mel {
		return c.NumMels
	}
	return c.FFTSize/2 + 1
}

// Frames returns the number of columns produced for n input samples.
func (c Config) Frames(n int) int {
	if n < c.FFTSize {
		n = c.FFTSize
	}
	return 1 + (n-c.FFTSize)/c.Hop()
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("spectrogram: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FFTSize < 2 {
		return fmt.Errorf("spectrogram: FFT size must be at least 2, got %d", c.FFTSize)
	}
	if c.Hop() <= 0 {
		return fmt.Errorf("spectrogram: hop size must be positive")
	}
	if c.Kind == Mel {
		if c.NumMels <= 0 {
			return fmt.Errorf("spectrogram: mel bins must be positive, got %d", c.NumMels)
		}
		if hi := c.highFreq(); c.LowFreq < 0 || hi <= c.LowFreq {
			return fmt.Errorf("spectrogram: invalid mel range [%g, %g]", c.LowFreq, hi)
		}
	}
	return nil
}

func (c Config) highFreq() float64 {
	if c.HighFreq > 0 {
		return c.HighFreq
	}
	return float64(c.SampleRate) / 2
}

// Extractor computes spectrograms from PCM samples. An Extractor owns FFT
// scratch space and must not be used concurrently.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64
	fft     *fourier.FFT

	frame  []float64
	coeffs []complex128
	power  []float64
}

// New creates an Extractor. cfg must be valid.
func New(cfg Config) *Extractor {
	half := cfg.FFTSize/2 + 1
	e := &Extractor{
		cfg:    cfg,
		window: hannWindow(cfg.FFTSize),
		fft:    fourier.NewFFT(cfg.FFTSize),
		frame:  make([]float64, cfg.FFTSize),
		coeffs: make([]complex128, half),
		power:  make([]float64, half),
	}
	if cfg.Kind == Mel {
		e.melBank = melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.highFreq())
	}
	return e
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Extract computes the spectrogram of samples. Input shorter than one FFT
// window is zero-padded, so the result always has at least one frame.
func (e *Extractor) Extract(samples []float64) Matrix {
	cfg := e.cfg
	nfft := cfg.FFTSize
	hop := cfg.Hop()

	if len(samples) < nfft {
		padded := make([]float64, nfft)
		copy(padded, samples)
		samples = padded
	}

	numFrames := cfg.Frames(len(samples))
	out := NewMatrix(cfg.Bins(), numFrames)

	for t := 0; t < numFrames; t++ {
		start := t * hop
		for i := 0; i < nfft; i++ {
			e.frame[i] = samples[start+i] * e.window[i]
		}

		e.coeffs = e.fft.Coefficients(e.coeffs, e.frame)
		for k, c := range e.coeffs {
			e.power[k] = real(c)*real(c) + imag(c)*imag(c)
		}

		if cfg.Kind == Mel {
			for m, filter := range e.melBank {
				sum := 0.0
				for k, w := range filter {
					if w != 0 {
						sum += w * e.power[k]
					}
				}
				out[m][t] = toDecibels(sum)
			}
			continue
		}
		for k, p := range e.power {
			out[k][t] = toDecibels(p)
		}
	}

	if cfg.Normalize {
		Normalize(out)
	}
	return out
}

func toDecibels(p float64) float32 {
	if p < floorPower {
		p = floorPower
	}
	return float32(10 * math.Log10(p))
}

// Normalize applies mean and variance normalisation in-place along the time
// axis of every bin. Constant bins become zero.
func Normalize(m Matrix) {
	for _, row := range m {
		if len(row) == 0 {
			continue
		}
		n := float64(len(row))

		sum := 0.0
		for _, v := range row {
			sum += float64(v)
		}
		mean := sum / n

		varSum := 0.0
		for _, v := range row {
			d := float64(v) - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / n)
		if std < 1e-10 {
			std = 1e-10
		}

		for i, v := range row {
			row[i] = float32((float64(v) - mean) / std)
		}
	}
}
