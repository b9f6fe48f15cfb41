package commands

import (
	devenv "corde-harvester/dev/env"
	"corde-harvester/lib/restyutil"
	"corde-harvester/lib/scrapers/corde/static"
	"corde-harvester/lib/util/serviceutil"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"
)

var cacheDir string

func init() {
	replayCmd.Flags().StringVar(&cacheDir, "cache", "", "Cache fetched pages in this directory, "+devenv.StatePrefix+" expands to the dev state directory.")
	addOutputFlags(replayCmd)
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <url> [--cache dir] [-f format] [-o dir]",
	Short: "Harvests a results page served over plain HTTP, such as a mirrored or saved query.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			serviceutil.Fatal("invalid configuration", err)
		}
		if cmd.Flags().Changed("cache") {
			cfg.CacheDir = cacheDir
		}

		opts := static.ClientOptions{
			Selectors:         cfg.Selectors,
			Timeout:           cfg.PageTimeout(),
			RequestsPerSecond: cfg.RequestsPerSecond,
		}
		if cfg.CacheDir != "" {
			var db *badger.DB
			db, err = static.OpenCache(cfg.CacheDir)
			if err != nil {
				serviceutil.Fatal("failed to open page cache", err)
			}
			defer db.Close()
			opts.Cache = db
		}
		if verbose {
			opts.InstrumentOutput, err = restyutil.NewFilesystemOutput(devenv.StatePrefix + "/resty/replay")
			if err != nil {
				serviceutil.Fatal("failed to create request dump directory", err)
			}
		}

		client, err := static.NewClient(opts)
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		page, err := client.Open(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to open results page", err)
		}

		err = runHarvest(cmd.Context(), cfg, page)
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}
	},
}
