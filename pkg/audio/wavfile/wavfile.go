// Package wavfile reads and writes RIFF/WAVE files as mono float64 PCM.
//
// Multi-channel input is downmixed by averaging channels. Samples are
// normalised to [-1, 1] using the source bit depth. Files are always written
// as 16-bit signed mono PCM.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth is the bit depth used when encoding.
const BitDepth = 16

// ErrInvalidFile is returned when the input is not a readable PCM WAV file.
var ErrInvalidFile = errors.New("wavfile: invalid WAV file")

// Audio is decoded mono PCM.
type Audio struct {
	Samples    []float64 // normalised to [-1, 1]
	SampleRate int       // Hz
}

// Read decodes the WAV file at path.
func Read(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("wavfile: read %s: %w", path, err)
	}
	return a, nil
}

// Decode reads a complete WAV stream from r.
func Decode(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels <= 0 || depth <= 0 || depth > 32 || dec.SampleRate == 0 {
		return nil, ErrInvalidFile
	}

	scale := float64(int64(1) << (depth - 1))
	// 8-bit PCM is unsigned with silence at 128.
	var bias float64
	if depth == 8 {
		bias = 128
	}
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) - bias
		}
		samples[i] = sum / float64(channels) / scale
	}

	return &Audio{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// Write encodes a as a 16-bit mono WAV file at path, truncating any
// existing file.
func Write(path string, a *Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, a); err != nil {
		f.Close()
		return fmt.Errorf("wavfile: write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes a as a 16-bit mono WAV stream.
func Encode(w io.WriteSeeker, a *Audio) error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", a.SampleRate)
	}

	ints := make([]int, len(a.Samples))
	for i, s := range a.Samples {
		ints[i] = int(math.Round(clamp(s) * math.MaxInt16))
	}

	enc := wav.NewEncoder(w, a.SampleRate, BitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  a.SampleRate,
		},
		Data:           ints,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
