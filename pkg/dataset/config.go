package dataset

import (
	"errors"
	"fmt"

	"github.com/mari-linhares/deep-audio/pkg/audio/segment"
	"github.com/mari-linhares/deep-audio/pkg/audio/spectrogram"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("dataset: invalid config")
	// ErrInvalidFraction is returned for split fractions outside (0, 1).
	ErrInvalidFraction = errors.New("dataset: split fraction must be in (0, 1)")
	// ErrTooFewSamples is returned when a partition cannot be split.
	ErrTooFewSamples = errors.New("dataset: too few samples to split")
)

// ClassesFormat selects the encoding of the class mapping file.
type ClassesFormat string

const (
	ClassesMsgpack ClassesFormat = "msgpack"
	ClassesJSON    ClassesFormat = "json"
	ClassesYAML    ClassesFormat = "yaml"
)

// ClassesFormats lists the supported formats, msgpack first.
var ClassesFormats = []ClassesFormat{ClassesMsgpack, ClassesJSON, ClassesYAML}

// FileName returns the name the class mapping is stored under.
func (f ClassesFormat) FileName() string {
	if f == ClassesMsgpack || f == "" {
		return "classes"
	}
	return "classes." + string(f)
}

// Config holds every build parameter. Field names follow the command-line
// flags; the yaml/json keys are used by config files.
type Config struct {
	TrainPath  string `yaml:"train_path" json:"train_path"`
	TestPath   string `yaml:"test_path,omitempty" json:"test_path,omitempty"`
	EvalPath   string `yaml:"eval_path,omitempty" json:"eval_path,omitempty"`
	OutputPath string `yaml:"output_path" json:"output_path"`

	Format     string  `yaml:"format" json:"format"`
	NFFT       int     `yaml:"n_fft" json:"n_fft"`
	HopLength  int     `yaml:"hop_length,omitempty" json:"hop_length,omitempty"`
	NMels      int     `yaml:"n_mels" json:"n_mels"`
	SampleRate int     `yaml:"sample_rate" json:"sample_rate"`
	Normalize  bool    `yaml:"normalize,omitempty" json:"normalize,omitempty"`
	SampleSize float64 `yaml:"sample_size" json:"sample_size"`
	SampleType string  `yaml:"sample_type" json:"sample_type"`

	Seed       int64   `yaml:"seed" json:"seed"`
	TestSize   float64 `yaml:"test_size" json:"test_size"`
	DeriveEval bool    `yaml:"derive_eval,omitempty" json:"derive_eval,omitempty"`

	Workers       int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	CacheDir      string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	ClassesFormat string `yaml:"classes_format,omitempty" json:"classes_format,omitempty"`
}

// DefaultConfig returns the defaults of the build command.
func DefaultConfig() Config {
	sc := spectrogram.DefaultConfig()
	return Config{
		OutputPath:    "audio_files/transfer/",
		Format:        string(spectrogram.Mel),
		NFFT:          sc.FFTSize,
		NMels:         sc.NumMels,
		SampleRate:    sc.SampleRate,
		SampleSize:    0.8,
		SampleType:    string(segment.All),
		Seed:          7,
		TestSize:      0.25,
		Workers:       1,
		ClassesFormat: string(ClassesMsgpack),
	}
}

// Validate reports the first configuration error, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.TrainPath == "" {
		return fmt.Errorf("%w: train path is required", ErrInvalidConfig)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfig)
	}
	if err := c.SpectrogramConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.SegmentConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("%w: test size %g outside (0, 1)", ErrInvalidConfig, c.TestSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if _, err := c.classesFormat(); err != nil {
		return err
	}
	return nil
}

func (c Config) classesFormat() (ClassesFormat, error) {
	if c.ClassesFormat == "" {
		return ClassesMsgpack, nil
	}
	for _, f := range ClassesFormats {
		if string(f) == c.ClassesFormat {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown classes format %q", ErrInvalidConfig, c.ClassesFormat)
}

// Classes returns the configured class mapping format.
func (c Config) Classes() ClassesFormat {
	f, err := c.classesFormat()
	if err != nil {
		return ClassesMsgpack
	}
	return f
}

// SpectrogramConfig returns the transform parameters.
func (c Config) SpectrogramConfig() spectrogram.Config {
	return spectrogram.Config{
		Kind:       spectrogram.Kind(c.Format),
		SampleRate: c.SampleRate,
		FFTSize:    c.NFFT,
		HopSize:    c.HopLength,
		NumMels:    c.NMels,
		Normalize:  c.Normalize,
	}
}

// SegmentConfig returns the segmentation parameters.
func (c Config) SegmentConfig() segment.Config {
	return segment.Config{
		Duration:   c.SampleSize,
		Mode:       segment.Mode(c.SampleType),
		SampleRate: c.SampleRate,
	}
}

// FeatureShape returns the (rows, cols) of every sample.
func (c Config) FeatureShape() (int, int) {
	sc := c.SpectrogramConfig()
	return sc.Bins(), sc.Frames(c.SegmentConfig().Length())
}

// Source is a partition and the directory it is built from. An empty Path
// means the partition is not built from disk.
type Source struct {
	Name Name
	Path string
}

// Sources returns the partitions in processing order: train, test, eval.
func (c Config) Sources() []Source {
	return []Source{
		{Train, c.TrainPath},
		{Test, c.TestPath},
		{Eval, c.EvalPath},
	}
}

// derives reports whether the held-out partition name, having no path,
// is split off train. With both held-out paths absent only test is derived
// unless DeriveEval is set.
func (c Config) derives(name Name) bool {
	switch name {
	case Test:
		return c.TestPath == ""
	case Eval:
		return c.EvalPath == "" && (c.TestPath != "" || c.DeriveEval)
	}
	return false
}
