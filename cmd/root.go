package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/config"
)

var (
	cfg   *config.Config
	debug bool

	// Set by the -i/-o flags of run and status.
	inputPath  string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:   "place-rater",
	Short: "Rate places with a fallback pool of LLM backends",
	Long:  "Sends every place record to a rotating pool of generative models, merges the 0-10 ratings and floor counts back into the record, and saves progress after each one so interrupted runs resume.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		if debug {
			cfg.Log.Level = "debug"
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// applyPathFlags overrides the configured input and output paths with
// non-empty flag values.
func applyPathFlags() {
	if inputPath != "" {
		cfg.Input = inputPath
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
