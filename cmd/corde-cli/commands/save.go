package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"corde-harvester/internal/config"
	"corde-harvester/lib/concordance"
	"corde-harvester/lib/export"
	"corde-harvester/lib/harvest"

	"github.com/schollz/progressbar/v3"
)

func newProgress() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("harvesting"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

// runHarvest walks page with a progress spinner and saves whatever was
// collected. A failed walk still saves its partial records, its error is
// returned after they are written.
func runHarvest(ctx context.Context, cfg config.Config, page harvest.Page) error {
	bar := newProgress()
	harvester := harvest.New(harvest.Options{
		Marker:   cfg.Marker(),
		MaxPages: cfg.MaxPages,
		OnPage: func(stats harvest.PageStats) {
			bar.Describe(fmt.Sprintf("page %d, %d records", stats.Number, stats.Total))
			bar.Add(1)
		},
	})

	t1 := time.Now()
	records, runErr := harvester.Run(ctx, page)
	bar.Finish()
	slog.Info("harvest finished", "records", len(records), "seconds", time.Since(t1).Seconds())

	if runErr != nil && len(records) == 0 {
		return runErr
	}
	if runErr != nil {
		slog.Error("harvest stopped early, saving partial results", "err", runErr)
	}

	path, err := save(ctx, cfg, records)
	if err != nil {
		return errors.Join(runErr, err)
	}
	slog.Info("results saved", "path", path)
	return runErr
}

func save(ctx context.Context, cfg config.Config, records []concordance.Record) (string, error) {
	path, err := export.Save(ctx, records, cfg.Format, cfg.OutputDir, time.Now())
	if errors.Is(err, export.ErrEmptyHarvest) {
		return "", fmt.Errorf("%w, check that the query returned concordances", err)
	}
	return path, err
}
