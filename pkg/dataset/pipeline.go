package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mari-linhares/deep-audio/pkg/featcache"
)

// Dataset is the in-memory result of a build.
type Dataset struct {
	Registry   Registry
	Partitions []*Partition // train, test, eval order; absent ones omitted
}

// Partition returns the partition called name, or nil.
func (d *Dataset) Partition(name Name) *Partition {
	for _, p := range d.Partitions {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (d *Dataset) replace(p *Partition) {
	for i, q := range d.Partitions {
		if q.Name == p.Name {
			d.Partitions[i] = p
			return
		}
	}
	d.Partitions = append(d.Partitions, p)
}

// Options carries optional collaborators of Build.
type Options struct {
	Cache    *featcache.Cache
	Progress Progress
	Logger   *slog.Logger
}

// Build runs the whole pipeline for cfg: train is built first, then test
// and eval are each built from their root or split off train.
func Build(ctx context.Context, cfg Config, opts Options) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	scratch, err := os.MkdirTemp("", "deepaudio-*")
	if err != nil {
		return nil, fmt.Errorf("dataset: scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	b, err := NewBuilder(cfg, scratch, opts.Cache)
	if err != nil {
		return nil, err
	}
	b.Logger = log
	b.Progress = opts.Progress
	splitter := NewSplitter(cfg.Seed)

	ds := &Dataset{}
	for _, src := range cfg.Sources() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if src.Path != "" {
			log.Info("building partition", "partition", src.Name, "root", src.Path)
			p, reg, err := b.BuildPartition(ctx, src.Name, src.Path, ds.Registry)
			if err != nil {
				return nil, err
			}
			ds.Registry = reg
			ds.replace(p)
			continue
		}
		if !cfg.derives(src.Name) {
			continue
		}

		train := ds.Partition(Train)
		retained, held, err := splitter.Split(train, cfg.TestSize, src.Name)
		if err != nil {
			return nil, err
		}
		log.Info("derived partition",
			"partition", src.Name,
			"from", Train,
			"held_out", held.Len(),
			"retained", retained.Len())
		ds.replace(retained)
		ds.replace(held)
	}
	return ds, nil
}
