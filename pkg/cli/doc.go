// Package cli holds helpers shared by the deepaudio commands: loading
// build configuration files, writing command results as YAML or JSON, and
// styled terminal output.
//
//	var cfg dataset.Config
//	if err := cli.LoadRequest("build.yaml", &cfg); err != nil { ... }
//
//	cli.Output(summary, cli.OutputOptions{Format: cli.FormatJSON})
package cli
