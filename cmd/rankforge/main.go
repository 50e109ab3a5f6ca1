package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rankforge",
		Short: "RankForge - SEO learning-to-rank training engine",
		Long: `RankForge trains and serves SEO ranking models: a gradient-boosted
batch trainer, a real-time incremental neural ranker, a feature quality
gate, and live training metric streaming.

Run 'rankforge train' to train a model.
Run 'rankforge --help' for available commands.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		trainCmd(),
		updateCmd(),
		predictCmd(),
		qualityCmd(),
		modelsCmd(),
		exportThresholdsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the runtime config and logger from global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return cfg, logger.New(level, cfg.Log.Format), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rankforge %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
