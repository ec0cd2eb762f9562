package spectrogram

import (
	"context"
	"fmt"
	"sync"

	"github.com/mari-linhares/deep-audio/pkg/audio/resampler"
	"github.com/mari-linhares/deep-audio/pkg/audio/wavfile"
)

// Transformer turns WAV clips into spectrogram matrices. It is safe for
// concurrent use; each goroutine borrows its own Extractor.
type Transformer struct {
	cfg  Config
	pool sync.Pool
}

// NewTransformer validates cfg and returns a Transformer.
func NewTransformer(cfg Config) (*Transformer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Transformer{cfg: cfg}
	t.pool.New = func() any { return New(cfg) }
	return t, nil
}

// Config returns the transformer configuration.
func (t *Transformer) Config() Config { return t.cfg }

// Transform reads the clip at path and returns its spectrogram. Clips whose
// sample rate differs from the configured one are resampled first.
func (t *Transformer) Transform(ctx context.Context, path string) (Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := wavfile.Read(path)
	if err != nil {
		return nil, fmt.Errorf("spectrogram: %w", err)
	}
	return t.TransformAudio(a)
}

// TransformAudio computes the spectrogram of decoded audio.
func (t *Transformer) TransformAudio(a *wavfile.Audio) (Matrix, error) {
	samples := a.Samples
	if a.SampleRate != t.cfg.SampleRate {
		var err error
		samples, err = resampler.Resample(samples, a.SampleRate, t.cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("spectrogram: %w", err)
		}
	}
	e := t.pool.Get().(*Extractor)
	defer t.pool.Put(e)
	return e.Extract(samples), nil
}
