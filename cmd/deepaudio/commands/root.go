package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "deepaudio",
	Short: "Build spectrogram datasets from labelled WAV files",
	Long: `deepaudio - turn directories of labelled WAV files into training datasets.

Every *.wav file under a root is cut into fixed-length clips, each clip is
transformed into a (mel) spectrogram, and the class of a file is the name of
its parent directory. Partitions are written as NumPy arrays:

  train_data.npy  train_labels.npy
  test_data.npy   test_labels.npy
  eval_data.npy   eval_labels.npy
  classes         (msgpack class name -> id map)
  manifest.yaml

Examples:
  # Build from a train root, deriving the test partition
  deepaudio build --train-path data/train --output-path out/

  # Build with explicit roots and write to S3
  deepaudio build --train-path data/train --test-path data/test \
    --eval-path data/eval --output-path s3://datasets/speech

  # Summarise what was written
  deepaudio inspect out/`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(underscoreFlags)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// underscoreFlags accepts --n_fft style spellings for --n-fft.
func underscoreFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
