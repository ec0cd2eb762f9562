package dataset

import (
	"fmt"

	"github.com/mari-linhares/deep-audio/pkg/audio/spectrogram"
)

// Name identifies a partition.
type Name string

const (
	Train Name = "train"
	Test  Name = "test"
	Eval  Name = "eval"
)

// Names lists partitions in processing order.
var Names = []Name{Train, Test, Eval}

// Feature is one spectrogram sample, [rows][cols].
type Feature = spectrogram.Matrix

// Partition is a named split holding samples and their parallel labels.
type Partition struct {
	Name     Name
	Features []Feature
	Labels   []int

	// Rows and Cols give the shape every feature has, even when the
	// partition is empty.
	Rows, Cols int

	// Derived is set for partitions split off train rather than built
	// from a directory.
	Derived bool
}

// Len returns the number of samples.
func (p *Partition) Len() int { return len(p.Labels) }

// Validate checks that features and labels are parallel and that every
// feature has the partition shape.
func (p *Partition) Validate() error {
	if len(p.Features) != len(p.Labels) {
		return fmt.Errorf("dataset: %s: %d features but %d labels", p.Name, len(p.Features), len(p.Labels))
	}
	for i, f := range p.Features {
		if r, c := f.Shape(); r != p.Rows || c != p.Cols {
			return fmt.Errorf("dataset: %s: sample %d has shape (%d, %d), want (%d, %d)", p.Name, i, r, c, p.Rows, p.Cols)
		}
	}
	return nil
}

// subset returns a new partition holding the samples at idx, in idx order.
func (p *Partition) subset(name Name, idx []int) *Partition {
	out := &Partition{
		Name:     name,
		Features: make([]Feature, len(idx)),
		Labels:   make([]int, len(idx)),
		Rows:     p.Rows,
		Cols:     p.Cols,
		Derived:  p.Derived,
	}
	for i, j := range idx {
		out.Features[i] = p.Features[j]
		out.Labels[i] = p.Labels[j]
	}
	return out
}
