// Package main is the entry point for the deepaudio CLI.
//
// Usage:
//
//	deepaudio [flags] <command> [args]
//
// Commands:
//
//	build    - Build spectrogram datasets from directories of WAV files
//	inspect  - Summarise a built dataset
//	cache    - Feature cache maintenance (stats, clear)
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/mari-linhares/deep-audio/cmd/deepaudio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
