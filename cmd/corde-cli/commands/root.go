package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"corde-harvester/internal/config"
	"corde-harvester/lib/export"
	"corde-harvester/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	format     string
	outputDir  string
	maxPages   int

	tel telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "corde-cli",
	Short: "corde-cli harvests concordance results from the CORDE corpus into tabular files.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		var err error
		tel, err = telemetry.SetupFromEnv(cmd.Context(), "corde-cli")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := tel.Shutdown(context.WithoutCancel(cmd.Context()))
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "The config file to read.")
}

// addOutputFlags registers the flags of commands that save a harvest.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&format, "format", "f", "", fmt.Sprintf("The output format, one of %v.", export.Formats))
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "The directory results/ is written under.")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Stop after this many result pages, 0 reads every page.")
}

// loadConfig reads the config file and applies the flags that were set on
// cmd over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = maxPages
	}
	return cfg, cfg.Validate()
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
