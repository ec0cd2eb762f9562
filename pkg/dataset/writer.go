package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mari-linhares/deep-audio/pkg/npy"
	"github.com/mari-linhares/deep-audio/pkg/storage"
)

// ManifestFile is the name the run manifest is stored under.
const ManifestFile = "manifest.yaml"

// DataFile returns the feature array file name of a partition.
func DataFile(name Name) string { return string(name) + "_data.npy" }

// LabelsFile returns the label array file name of a partition.
func LabelsFile(name Name) string { return string(name) + "_labels.npy" }

// Writer stores datasets in a FileStore. Files are written one after the
// other; a failure leaves the files already written in place.
type Writer struct {
	store   storage.FileStore
	classes ClassesFormat
}

// NewWriter returns a Writer that encodes the class mapping as format.
func NewWriter(store storage.FileStore, format ClassesFormat) *Writer {
	if format == "" {
		format = ClassesMsgpack
	}
	return &Writer{store: store, classes: format}
}

// Write stores every partition of ds, the class mapping and, when m is not
// nil, the manifest.
func (w *Writer) Write(ctx context.Context, ds *Dataset, m *Manifest) error {
	for _, p := range ds.Partitions {
		if err := w.WritePartition(ctx, p); err != nil {
			return err
		}
	}
	if err := w.WriteClasses(ctx, ds.Registry); err != nil {
		return err
	}
	if m != nil {
		return w.WriteManifest(ctx, m)
	}
	return nil
}

// WritePartition stores p as <name>_data.npy and <name>_labels.npy.
func (w *Writer) WritePartition(ctx context.Context, p *Partition) error {
	if err := p.Validate(); err != nil {
		return err
	}

	rows := make([][]float32, 0, p.Len()*p.Rows)
	for _, f := range p.Features {
		rows = append(rows, f...)
	}
	shape := []int{p.Len(), p.Rows, p.Cols}
	err := w.put(ctx, DataFile(p.Name), func(wr io.Writer) error {
		return npy.WriteFloat32Rows(wr, shape, rows)
	})
	if err != nil {
		return err
	}

	labels := make([]int64, len(p.Labels))
	for i, l := range p.Labels {
		labels[i] = int64(l)
	}
	return w.put(ctx, LabelsFile(p.Name), func(wr io.Writer) error {
		return npy.WriteInt64(wr, labels)
	})
}

// WriteClasses stores the class mapping in the configured format.
func (w *Writer) WriteClasses(ctx context.Context, reg Registry) error {
	data, err := EncodeClasses(reg, w.classes)
	if err != nil {
		return err
	}
	return w.put(ctx, w.classes.FileName(), func(wr io.Writer) error {
		_, err := wr.Write(data)
		return err
	})
}

// WriteManifest stores m as YAML.
func (w *Writer) WriteManifest(ctx context.Context, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("dataset: encode manifest: %w", err)
	}
	return w.put(ctx, ManifestFile, func(wr io.Writer) error {
		_, err := wr.Write(data)
		return err
	})
}

func (w *Writer) put(ctx context.Context, name string, fn func(io.Writer) error) error {
	wc, err := w.store.Write(ctx, name)
	if err != nil {
		return fmt.Errorf("dataset: write %s: %w", name, err)
	}
	if err := fn(wc); err != nil {
		wc.Abort()
		return fmt.Errorf("dataset: write %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("dataset: write %s: %w", name, err)
	}
	return nil
}

// EncodeClasses serialises reg in the given format.
func EncodeClasses(reg Registry, format ClassesFormat) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case ClassesMsgpack, "":
		data, err = msgpack.Marshal(reg)
	case ClassesJSON:
		data, err = json.MarshalIndent(reg, "", "  ")
	case ClassesYAML:
		data, err = yaml.Marshal(reg)
	default:
		return nil, fmt.Errorf("%w: unknown classes format %q", ErrInvalidConfig, format)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: encode classes: %w", err)
	}
	return data, nil
}

// DecodeClasses parses a class mapping written by EncodeClasses.
func DecodeClasses(data []byte, format ClassesFormat) (Registry, error) {
	var (
		reg Registry
		err error
	)
	switch format {
	case ClassesMsgpack, "":
		err = msgpack.Unmarshal(data, &reg)
	case ClassesJSON:
		err = json.Unmarshal(data, &reg)
	case ClassesYAML:
		err = yaml.Unmarshal(data, &reg)
	default:
		return Registry{}, fmt.Errorf("%w: unknown classes format %q", ErrInvalidConfig, format)
	}
	if err != nil {
		return Registry{}, fmt.Errorf("dataset: decode classes: %w", err)
	}
	return reg, nil
}
