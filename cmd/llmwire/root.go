package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/llmwire/llmwire/providers/ai/registry"
	"github.com/llmwire/llmwire/providers/observability"
	"github.com/llmwire/llmwire/providers/observability/slogobs"
)

var (
	flagEndpoints string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:          "llmwire",
	Short:        "Normalized access to heterogeneous AI backends",
	Long:         "llmwire resolves a backend by identifier, adapts requests to its wire format\nand normalizes streamed responses into one canonical event model.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoints, "endpoints", "", "YAML file declaring additional OpenAI-compatible endpoints")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(statusCmd, modelsCmd, generateCmd, tokensCmd)
}

// buildRegistry assembles the registry every subcommand resolves against:
// built-in backends plus any endpoints file named on the command line.
func buildRegistry() (*registry.Registry, error) {
	r := registry.Default()
	if flagEndpoints != "" {
		if err := r.LoadEndpointsFile(flagEndpoints); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// observer builds the CLI's logging observer, honoring --verbose.
func observer() observability.Provider {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slogobs.New(slogobs.WithLevel(level))
}
