package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/mari-linhares/deep-audio/pkg/npy"
	"github.com/mari-linhares/deep-audio/pkg/storage"
)

// Summary describes a dataset found in a store.
type Summary struct {
	Location     string             `yaml:"location" json:"location"`
	ClassesFile  string             `yaml:"classes_file" json:"classes_file"`
	Classes      []string           `yaml:"classes" json:"classes"`
	Partitions   []PartitionSummary `yaml:"partitions" json:"partitions"`
	RunID        string             `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	CreatedAt    string             `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	BuildVersion string             `yaml:"build_version,omitempty" json:"build_version,omitempty"`
}

// PartitionSummary describes one partition's arrays.
type PartitionSummary struct {
	Name      Name         `yaml:"name" json:"name"`
	DataDtype string       `yaml:"data_dtype" json:"data_dtype"`
	DataShape []int        `yaml:"data_shape" json:"data_shape"`
	Labels    int          `yaml:"labels" json:"labels"`
	Counts    []ClassCount `yaml:"counts" json:"counts"`
}

// ClassCount is the number of samples labelled with one class.
type ClassCount struct {
	ID    int    `yaml:"id" json:"id"`
	Class string `yaml:"class" json:"class"`
	Count int    `yaml:"count" json:"count"`
}

// Inspect reads back the dataset stored in store. Feature arrays are not
// loaded, only their headers. It fails when no partition is found or when a
// partition's label count does not match its sample count.
func Inspect(ctx context.Context, store storage.FileStore) (*Summary, error) {
	s := &Summary{Location: store.Location()}

	reg, file, err := readClasses(ctx, store)
	if err != nil {
		return nil, err
	}
	s.ClassesFile = file
	s.Classes = reg.Names()

	for _, name := range Names {
		ok, err := store.Exists(ctx, DataFile(name))
		if err != nil {
			return nil, fmt.Errorf("dataset: inspect: %w", err)
		}
		if !ok {
			continue
		}
		ps, err := inspectPartition(ctx, store, name, reg)
		if err != nil {
			return nil, err
		}
		s.Partitions = append(s.Partitions, *ps)
	}
	if len(s.Partitions) == 0 {
		return nil, fmt.Errorf("dataset: inspect %s: no partitions found", s.Location)
	}

	m, err := readManifest(ctx, store)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.RunID = m.RunID
		s.CreatedAt = m.CreatedAt
		s.BuildVersion = m.Version
	}
	return s, nil
}

func inspectPartition(ctx context.Context, store storage.FileStore, name Name, reg Registry) (*PartitionSummary, error) {
	ps := &PartitionSummary{Name: name}

	rc, err := store.Read(ctx, DataFile(name))
	if err != nil {
		return nil, fmt.Errorf("dataset: inspect %s: %w", name, err)
	}
	h, err := npy.ReadHeader(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("dataset: inspect %s: %w", DataFile(name), err)
	}
	ps.DataDtype = h.Descr
	ps.DataShape = h.Shape

	rc, err = store.Read(ctx, LabelsFile(name))
	if err != nil {
		return nil, fmt.Errorf("dataset: inspect %s: %w", name, err)
	}
	_, labels, err := npy.ReadInt64(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("dataset: inspect %s: %w", LabelsFile(name), err)
	}
	ps.Labels = len(labels)
	if len(h.Shape) == 0 || h.Shape[0] != len(labels) {
		return nil, fmt.Errorf("dataset: inspect %s: data shape %v does not match %d labels", name, h.Shape, len(labels))
	}

	counts := make([]int, reg.Len())
	for _, l := range labels {
		if l < 0 || int(l) >= len(counts) {
			return nil, fmt.Errorf("dataset: inspect %s: label %d has no class", name, l)
		}
		counts[l]++
	}
	for id, n := range counts {
		if n == 0 {
			continue
		}
		class, _ := reg.Name(id)
		ps.Counts = append(ps.Counts, ClassCount{ID: id, Class: class, Count: n})
	}
	return ps, nil
}

func readClasses(ctx context.Context, store storage.FileStore) (Registry, string, error) {
	for _, f := range ClassesFormats {
		data, err := readAll(ctx, store, f.FileName())
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Registry{}, "", fmt.Errorf("dataset: inspect: %w", err)
		}
		reg, err := DecodeClasses(data, f)
		if err != nil {
			return Registry{}, "", err
		}
		return reg, f.FileName(), nil
	}
	return Registry{}, "", fmt.Errorf("dataset: inspect %s: class mapping not found", store.Location())
}

func readManifest(ctx context.Context, store storage.FileStore) (*Manifest, error) {
	data, err := readAll(ctx, store, ManifestFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: inspect: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("dataset: decode manifest: %w", err)
	}
	return &m, nil
}

func readAll(ctx context.Context, store storage.FileStore, name string) ([]byte, error) {
	rc, err := store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
