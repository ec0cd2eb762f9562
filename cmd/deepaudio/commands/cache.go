package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mari-linhares/deep-audio/pkg/cli"
	"github.com/mari-linhares/deep-audio/pkg/featcache"
)

var cacheDir string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Feature cache maintenance",
	Long: `Inspect or empty the feature cache used by 'deepaudio build --cache-dir'.

Examples:
  deepaudio cache stats --cache-dir ~/.cache/deepaudio
  deepaudio cache clear --cache-dir ~/.cache/deepaudio`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number and size of cached entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		st, err := c.Stats(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("entries: %d\n", st.Entries)
		fmt.Printf("size:    %s\n", cli.FormatBytes(st.Bytes))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Clear(context.Background())
		if err != nil {
			return err
		}
		cli.PrintSuccess("removed %d cached entries", n)
		return nil
	},
}

func openCache() (*featcache.Cache, error) {
	if cacheDir == "" {
		return nil, errors.New("--cache-dir is required")
	}
	return featcache.Open(cacheDir)
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "feature cache directory")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
