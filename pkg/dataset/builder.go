package dataset

import (
	"context"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mari-linhares/deep-audio/pkg/audio/segment"
	"github.com/mari-linhares/deep-audio/pkg/audio/spectrogram"
	"github.com/mari-linhares/deep-audio/pkg/featcache"
)

// logEvery is how often, in files, build progress is logged.
const logEvery = 100

// Progress receives per-file progress while a partition is built.
// Implementations must be safe for concurrent use.
type Progress interface {
	StartPartition(name Name, files int)
	FileDone(name Name)
}

// Builder builds partitions from directories of WAV files.
type Builder struct {
	segmenter   *segment.Segmenter
	transformer *spectrogram.Transformer
	cache       *featcache.Cache
	workers     int
	seed        int64
	rows, cols  int
	params      cacheParams

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Progress is optional.
	Progress Progress
}

// cacheParams are the build parameters that change a file's features.
type cacheParams struct {
	Format     string  `msgpack:"format"`
	NFFT       int     `msgpack:"n_fft"`
	Hop        int     `msgpack:"hop"`
	NMels      int     `msgpack:"n_mels"`
	SampleRate int     `msgpack:"sample_rate"`
	Normalize  bool    `msgpack:"normalize"`
	SampleSize float64 `msgpack:"sample_size"`
	SampleType string  `msgpack:"sample_type"`
	Seed       int64   `msgpack:"seed"`
	Rel        string  `msgpack:"rel"`
}

// NewBuilder creates a Builder. scratchDir receives temporary sub-clips; an
// empty value uses os.TempDir. cache may be nil.
func NewBuilder(cfg Config, scratchDir string, cache *featcache.Cache) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seg, err := segment.New(cfg.SegmentConfig(), scratchDir)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	tr, err := spectrogram.NewTransformer(cfg.SpectrogramConfig())
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	rows, cols := cfg.FeatureShape()
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		segmenter:   seg,
		transformer: tr,
		cache:       cache,
		workers:     workers,
		seed:        cfg.Seed,
		rows:        rows,
		cols:        cols,
		params: cacheParams{
			Format:     cfg.Format,
			NFFT:       cfg.NFFT,
			Hop:        cfg.SpectrogramConfig().Hop(),
			NMels:      cfg.NMels,
			SampleRate: cfg.SampleRate,
			Normalize:  cfg.Normalize,
			SampleSize: cfg.SampleSize,
			SampleType: cfg.SampleType,
			Seed:       cfg.Seed,
		},
	}, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// BuildPartition builds the partition name from every *.wav file under
// root. Class ids are taken from reg, registering new parent-directory names
// in sorted file order; the updated registry is returned alongside.
func (b *Builder) BuildPartition(ctx context.Context, name Name, root string, reg Registry) (*Partition, Registry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, reg, fmt.Errorf("dataset: %s: %w", name, err)
	}
	files, err := Discover(root)
	if err != nil {
		return nil, reg, fmt.Errorf("dataset: %s: %w", name, err)
	}

	log := b.logger().With("partition", name)
	if len(files) == 0 {
		log.Warn("no wav files found", "root", root)
	}

	fileLabels := make([]int, len(files))
	for i, f := range files {
		reg, fileLabels[i] = reg.With(ClassName(f))
	}

	if b.Progress != nil {
		b.Progress.StartPartition(name, len(files))
	}

	results := make([][]Feature, len(files))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			feats, err := b.processFile(gctx, root, f)
			if err != nil {
				return fmt.Errorf("dataset: %s: %w", name, err)
			}
			results[i] = feats

			if n := done.Add(1); (n-1)%logEvery == 0 {
				log.Info("preprocessing",
					"done", n,
					"total", len(files),
					"percent", fmt.Sprintf("%.2f", float64(n)/float64(len(files))*100))
			}
			if b.Progress != nil {
				b.Progress.FileDone(name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, reg, err
	}

	p := &Partition{Name: name, Rows: b.rows, Cols: b.cols}
	for i, feats := range results {
		for _, f := range feats {
			p.Features = append(p.Features, f)
			p.Labels = append(p.Labels, fileLabels[i])
		}
	}
	if err := p.Validate(); err != nil {
		return nil, reg, err
	}
	log.Debug("partition built", "files", len(files), "samples", p.Len(), "classes", reg.Len())
	return p, reg, nil
}

// processFile segments and transforms one source file, consulting the
// feature cache first.
func (b *Builder) processFile(ctx context.Context, root, path string) ([]Feature, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	var fp string
	if b.cache != nil {
		params := b.params
		params.Rel = rel
		if fp, err = featcache.Fingerprint(path, params); err != nil {
			return nil, err
		}
		feats, ok, err := b.cache.Get(ctx, fp)
		if err != nil {
			return nil, err
		}
		if ok {
			return feats, nil
		}
	}

	clips, err := b.segmenter.Split(ctx, path, b.fileRand(rel))
	if err != nil {
		return nil, err
	}
	defer clips.Close()

	feats := make([]Feature, 0, len(clips.Paths))
	for _, clip := range clips.Paths {
		m, err := b.transformer.Transform(ctx, clip)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		feats = append(feats, m)
	}

	if err := b.cache.Put(ctx, fp, feats); err != nil {
		return nil, err
	}
	return feats, nil
}

// fileRand returns the generator used for random segment offsets of the
// file at rel. It depends only on the seed and rel, so results do not vary
// with worker count or with other files in the tree.
func (b *Builder) fileRand(rel string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(rel))
	return rand.New(rand.NewPCG(uint64(b.seed), h.Sum64()))
}

// Discover returns every file under root with a .wav extension (any case),
// sorted lexicographically.
func Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wav") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ClassName returns the class of a file: the name of its parent directory.
func ClassName(path string) string {
	return filepath.Base(filepath.Dir(path))
}
