package commands

import (
	"fmt"
	"log/slog"

	"corde-harvester/lib/scrapers/corde"
	"corde-harvester/lib/scrapers/corde/browser"
	"corde-harvester/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	browserName string
	mode        string
	headless    bool
)

func init() {
	harvestCmd.Flags().StringVarP(&browserName, "browser", "b", "", "The browser to drive: chrome, chromium or edge.")
	harvestCmd.Flags().StringVarP(&mode, "type", "t", "", fmt.Sprintf("The expected result mode, one of %v.", corde.ModeNames()))
	harvestCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window.")
	addOutputFlags(harvestCmd)
	rootCmd.AddCommand(harvestCmd)
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [-b browser] [-t mode] [-f format] [-o dir]",
	Short: "Opens the corpus search form, waits for a query and harvests every page of its results.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			serviceutil.Fatal("invalid configuration", err)
		}
		flags := cmd.Flags()
		if flags.Changed("browser") {
			cfg.Browser = browserName
		}
		if flags.Changed("type") {
			cfg.Mode = mode
		}
		if flags.Changed("headless") {
			cfg.Headless = headless
		}
		err = cfg.Validate()
		if err != nil {
			serviceutil.Fatal("invalid configuration", err)
		}

		ctx := cmd.Context()
		session, err := browser.Launch(ctx, browser.Options{
			Browser:       cfg.Browser,
			ExecPath:      cfg.ExecPath,
			Headless:      cfg.Headless,
			SearchURL:     cfg.SearchURL,
			Selectors:     cfg.Selectors,
			SubmitTimeout: cfg.SubmitTimeout(),
			PageTimeout:   cfg.PageTimeout(),
			// pagination clicks follow the same pacing as plain requests
			ClicksPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			serviceutil.Fatal("failed to launch browser", err)
		}
		defer session.Close()

		slog.Info("fill in the search form and submit the query", "url", cfg.SearchURL, "timeout", cfg.SubmitTimeout())
		err = session.OpenSearch(ctx)
		if err != nil {
			session.Close()
			serviceutil.Fatal("no query results to harvest", err)
		}

		err = runHarvest(ctx, cfg, session.Page())
		session.Close()
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}
	},
}
