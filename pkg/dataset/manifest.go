package dataset

import (
	"time"

	"github.com/google/uuid"
)

// Manifest records how a dataset was built.
type Manifest struct {
	RunID      string          `yaml:"run_id" json:"run_id"`
	CreatedAt  string          `yaml:"created_at" json:"created_at"`
	Version    string          `yaml:"version,omitempty" json:"version,omitempty"`
	Config     Config          `yaml:"config" json:"config"`
	Partitions []PartitionInfo `yaml:"partitions" json:"partitions"`
	Classes    []string        `yaml:"classes" json:"classes"`
}

// PartitionInfo summarises one written partition.
type PartitionInfo struct {
	Name    Name  `yaml:"name" json:"name"`
	Samples int   `yaml:"samples" json:"samples"`
	Shape   []int `yaml:"shape" json:"shape"`
	Derived bool  `yaml:"derived,omitempty" json:"derived,omitempty"`
}

// NewManifest describes ds built with cfg, stamped with a fresh run id.
func NewManifest(cfg Config, ds *Dataset, now time.Time) *Manifest {
	m := &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: now.UTC().Format(time.RFC3339),
		Config:    cfg,
		Classes:   ds.Registry.Names(),
	}
	for _, p := range ds.Partitions {
		m.Partitions = append(m.Partitions, PartitionInfo{
			Name:    p.Name,
			Samples: p.Len(),
			Shape:   []int{p.Len(), p.Rows, p.Cols},
			Derived: p.Derived,
		})
	}
	return m
}
