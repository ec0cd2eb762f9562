package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mari-linhares/deep-audio/pkg/cli"
	"github.com/mari-linhares/deep-audio/pkg/dataset"
	"github.com/mari-linhares/deep-audio/pkg/storage"
)

var (
	inspectFormat string
	inspectOutput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <output-path>",
	Short: "Summarise a built dataset",
	Long: `Read back a dataset written by 'deepaudio build' and print its classes,
array shapes and per-class sample counts. Feature arrays are not loaded.

Examples:
  deepaudio inspect audio_files/transfer/
  deepaudio inspect s3://datasets/speech --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(inspectFormat)
		if err != nil {
			return err
		}
		ctx := context.Background()
		store, err := storage.Open(ctx, args[0])
		if err != nil {
			return err
		}
		summary, err := dataset.Inspect(ctx, store)
		if err != nil {
			return err
		}
		return cli.Output(summary, cli.OutputOptions{Format: format, File: inspectOutput})
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "yaml", "output format: yaml or json")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "write the summary to a file")
	rootCmd.AddCommand(inspectCmd)
}
