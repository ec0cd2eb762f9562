// Package segment cuts audio files into fixed-duration sub-clips.
//
// A Segmenter decodes a WAV file, resamples it to the target rate and writes
// each sub-clip as a 16-bit mono WAV file into a scratch directory. The
// caller removes the clips with Clips.Close once they have been consumed.
package segment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/mari-linhares/deep-audio/pkg/audio/resampler"
	"github.com/mari-linhares/deep-audio/pkg/audio/wavfile"
)

// Mode selects how segment offsets are chosen.
type Mode string

const (
	// All takes consecutive non-overlapping segments from the start.
	All Mode = "all"
	// Random takes the same number of segments at uniform random offsets.
	Random Mode = "random"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case All, Random:
		return m, nil
	}
	return "", fmt.Errorf("segment: unknown mode %q (want %q or %q)", s, All, Random)
}

// Config controls segmentation.
type Config struct {
	Duration   float64 // seconds per segment
	Mode       Mode
	SampleRate int // target sample rate in Hz
}

// Length returns the segment length in samples.
func (c Config) Length() int {
	return int(math.Round(c.Duration * float64(c.SampleRate)))
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("segment: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Duration <= 0 || c.Length() < 1 {
		return fmt.Errorf("segment: duration must be positive, got %g", c.Duration)
	}
	return nil
}

// Segmenter splits WAV files into sub-clips. It holds no per-file state and
// is safe for concurrent use.
type Segmenter struct {
	cfg     Config
	scratch string
}

// New creates a Segmenter writing clips under scratchDir. An empty
// scratchDir uses os.TempDir.
func New(cfg Config, scratchDir string) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{cfg: cfg, scratch: scratchDir}, nil
}

// Config returns the segmenter configuration.
func (s *Segmenter) Config() Config { return s.cfg }

// Clips is the set of sub-clip files produced for one source file.
type Clips struct {
	Dir   string
	Paths []string
}

// Close removes the clip directory and everything in it.
func (c *Clips) Close() error {
	if c == nil || c.Dir == "" {
		return nil
	}
	return os.RemoveAll(c.Dir)
}

// Split decodes the file at path and writes its sub-clips. rng is only
// consulted in Random mode and may be nil otherwise.
func (s *Segmenter) Split(ctx context.Context, path string, rng *rand.Rand) (*Clips, error) {
	a, err := wavfile.Read(path)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	segs, err := s.SplitAudio(a, rng)
	if err != nil {
		return nil, fmt.Errorf("segment: %s: %w", path, err)
	}

	dir, err := os.MkdirTemp(s.scratch, "clips-*")
	if err != nil {
		return nil, fmt.Errorf("segment: scratch dir: %w", err)
	}
	clips := &Clips{Dir: dir, Paths: make([]string, 0, len(segs))}
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			clips.Close()
			return nil, err
		}
		p := filepath.Join(dir, fmt.Sprintf("%04d.wav", i))
		if err := wavfile.Write(p, &wavfile.Audio{Samples: seg, SampleRate: s.cfg.SampleRate}); err != nil {
			clips.Close()
			return nil, fmt.Errorf("segment: write clip: %w", err)
		}
		clips.Paths = append(clips.Paths, p)
	}
	return clips, nil
}

// SplitAudio returns the in-memory segments of a, resampled to the target
// rate. Every segment has exactly Config.Length samples.
func (s *Segmenter) SplitAudio(a *wavfile.Audio, rng *rand.Rand) ([][]float64, error) {
	samples, err := resampler.Resample(a.Samples, a.SampleRate, s.cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	segLen := s.cfg.Length()
	offsets := Offsets(len(samples), segLen, s.cfg.Mode, rng)

	segs := make([][]float64, len(offsets))
	for i, off := range offsets {
		seg := make([]float64, segLen)
		if off < len(samples) {
			copy(seg, samples[off:])
		}
		segs[i] = seg
	}
	return segs, nil
}

// Offsets returns the start offsets of the segments for an input of total
// samples. The count is floor(total/segLen), at least 1. A trailing
// remainder shorter than segLen is dropped. In Random mode each offset is
// drawn uniformly from [0, total-segLen].
func Offsets(total, segLen int, mode Mode, rng *rand.Rand) []int {
	n := total / segLen
	if n < 1 {
		return []int{0}
	}
	offsets := make([]int, n)
	for i := range offsets {
		if mode == Random {
			offsets[i] = rng.IntN(total - segLen + 1)
		} else {
			offsets[i] = i * segLen
		}
	}
	return offsets
}
