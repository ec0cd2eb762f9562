package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mari-linhares/deep-audio/cmd/deepaudio/internal/build"
	"github.com/mari-linhares/deep-audio/pkg/cli"
	"github.com/mari-linhares/deep-audio/pkg/dataset"
	"github.com/mari-linhares/deep-audio/pkg/featcache"
	"github.com/mari-linhares/deep-audio/pkg/storage"
)

var (
	buildConfigFile string
	buildNoProgress bool
	buildFlags      dataset.Config
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build train/test/eval spectrogram datasets",
	Long: `Build spectrogram datasets from directories of labelled WAV files.

The class of a file is the name of its parent directory. The train root is
always required. A missing test root is split off train using --test-size;
a missing eval root is split off train when a test root is given, or when
--derive-eval is set.

Parameters can also be read from a YAML or JSON file with --config; flags
given on the command line take precedence.

Examples:
  deepaudio build --train-path data/train --output-path out/
  deepaudio build -f build.yaml --workers 8 --cache-dir ~/.cache/deepaudio
  deepaudio build --train-path data/train --format spectrogram --n-fft 1024`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	def := dataset.DefaultConfig()
	f := buildCmd.Flags()

	f.StringVarP(&buildConfigFile, "config", "f", "", "YAML or JSON build config file (use '-' for stdin)")
	f.BoolVar(&buildNoProgress, "no-progress", false, "disable the progress bar")

	f.StringVar(&buildFlags.TrainPath, "train-path", def.TrainPath, "train root directory (required)")
	f.StringVar(&buildFlags.TestPath, "test-path", def.TestPath, "test root directory (derived from train when empty)")
	f.StringVar(&buildFlags.EvalPath, "eval-path", def.EvalPath, "eval root directory")
	f.StringVar(&buildFlags.OutputPath, "output-path", def.OutputPath, "output directory or s3://bucket/prefix")

	f.StringVar(&buildFlags.Format, "format", def.Format, "feature type: spectrogram or melspectrogram")
	f.IntVar(&buildFlags.NFFT, "n-fft", def.NFFT, "FFT window size")
	f.IntVar(&buildFlags.HopLength, "hop-length", def.HopLength, "STFT hop in samples (0 means n-fft/4)")
	f.IntVar(&buildFlags.NMels, "n-mels", def.NMels, "number of mel bins")
	f.IntVar(&buildFlags.SampleRate, "sample-rate", def.SampleRate, "target sample rate in Hz")
	f.BoolVar(&buildFlags.Normalize, "normalize", def.Normalize, "per-bin mean/variance normalisation of features")
	f.Float64Var(&buildFlags.SampleSize, "sample-size", def.SampleSize, "clip duration in seconds")
	f.StringVar(&buildFlags.SampleType, "sample-type", def.SampleType, "clip selection: all or random")

	f.Int64Var(&buildFlags.Seed, "seed", def.Seed, "random seed")
	f.Float64Var(&buildFlags.TestSize, "test-size", def.TestSize, "fraction of train held out for derived partitions")
	f.BoolVar(&buildFlags.DeriveEval, "derive-eval", def.DeriveEval, "also derive eval when neither test nor eval root is given")

	f.IntVar(&buildFlags.Workers, "workers", def.Workers, "files transformed in parallel")
	f.StringVar(&buildFlags.CacheDir, "cache-dir", def.CacheDir, "feature cache directory (disabled when empty)")
	f.StringVar(&buildFlags.ClassesFormat, "classes-format", def.ClassesFormat, "class map encoding: msgpack, json or yaml")

	rootCmd.AddCommand(buildCmd)
}

// loadBuildConfig starts from the defaults, applies the config file, then
// every flag set on the command line.
func loadBuildConfig(cmd *cobra.Command) (dataset.Config, error) {
	cfg := dataset.DefaultConfig()
	if buildConfigFile != "" {
		if err := cli.LoadRequest(buildConfigFile, &cfg); err != nil {
			return cfg, err
		}
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"train-path", func() { cfg.TrainPath = buildFlags.TrainPath }},
		{"test-path", func() { cfg.TestPath = buildFlags.TestPath }},
		{"eval-path", func() { cfg.EvalPath = buildFlags.EvalPath }},
		{"output-path", func() { cfg.OutputPath = buildFlags.OutputPath }},
		{"format", func() { cfg.Format = buildFlags.Format }},
		{"n-fft", func() { cfg.NFFT = buildFlags.NFFT }},
		{"hop-length", func() { cfg.HopLength = buildFlags.HopLength }},
		{"n-mels", func() { cfg.NMels = buildFlags.NMels }},
		{"sample-rate", func() { cfg.SampleRate = buildFlags.SampleRate }},
		{"normalize", func() { cfg.Normalize = buildFlags.Normalize }},
		{"sample-size", func() { cfg.SampleSize = buildFlags.SampleSize }},
		{"sample-type", func() { cfg.SampleType = buildFlags.SampleType }},
		{"seed", func() { cfg.Seed = buildFlags.Seed }},
		{"test-size", func() { cfg.TestSize = buildFlags.TestSize }},
		{"derive-eval", func() { cfg.DeriveEval = buildFlags.DeriveEval }},
		{"workers", func() { cfg.Workers = buildFlags.Workers }},
		{"cache-dir", func() { cfg.CacheDir = buildFlags.CacheDir }},
		{"classes-format", func() { cfg.ClassesFormat = buildFlags.ClassesFormat }},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			o.apply()
		}
	}
	return cfg, cfg.Validate()
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadBuildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.OutputPath)
	if err != nil {
		return err
	}

	var cache *featcache.Cache
	if cfg.CacheDir != "" {
		cache, err = featcache.Open(cfg.CacheDir)
		if err != nil {
			return err
		}
		defer cache.Close()
		slog.Debug("feature cache opened", "dir", cfg.CacheDir)
	}

	opts := dataset.Options{Cache: cache, Logger: slog.Default()}
	var bars *barProgress
	if !buildNoProgress {
		bars = newBarProgress(os.Stderr)
		opts.Progress = bars
	}

	start := time.Now()
	ds, err := dataset.Build(ctx, cfg, opts)
	if bars != nil {
		bars.Wait()
	}
	if err != nil {
		return err
	}

	m := dataset.NewManifest(cfg, ds, time.Now())
	m.Version = build.String()
	if err := dataset.NewWriter(store, cfg.Classes()).Write(ctx, ds, m); err != nil {
		return err
	}

	cli.PrintPanel(os.Stdout, buildPanel(store.Location(), ds, m, time.Since(start)))
	return nil
}

func buildPanel(location string, ds *dataset.Dataset, m *dataset.Manifest, elapsed time.Duration) cli.Panel {
	fields := []cli.Field{
		{Label: "output", Value: location},
		{Label: "classes", Value: fmt.Sprintf("%d (%s)", ds.Registry.Len(), strings.Join(ds.Registry.Names(), ", "))},
	}
	for _, p := range m.Partitions {
		v := fmt.Sprintf("%d samples  %s", p.Samples, cli.FormatShape(p.Shape))
		if p.Derived {
			v += "  derived"
		}
		fields = append(fields, cli.Field{Label: string(p.Name), Value: v})
	}
	fields = append(fields, cli.Field{Label: "elapsed", Value: cli.FormatDuration(elapsed)})
	return cli.Panel{
		Title:  "Dataset built",
		Fields: fields,
		Footer: "run " + m.RunID,
	}
}
