package wavfile

import (
	"math"
	"time"
)

// Tone synthesises a sine wave of the given frequency, amplitude 0.5.
func Tone(freq float64, d time.Duration, sampleRate int) *Audio {
	n := int(int64(sampleRate) * int64(d) / int64(time.Second))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &Audio{Samples: samples, SampleRate: sampleRate}
}
