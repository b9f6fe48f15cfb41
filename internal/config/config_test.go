package config

import (
	"path/filepath"
	"testing"
	"time"

	"corde-harvester/lib/export"
	"corde-harvester/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "corde.json5"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.Equal(t, "Concordancias", cfg.Marker())
	require.Equal(t, 30*time.Second, cfg.PageTimeout())
	require.Equal(t, 5*time.Minute, cfg.SubmitTimeout())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "corde.json5", `{
		mode: "par",
		format: "excel",
		selectors: { next_marker: "Next" },
	}`)
	testutil.WriteFile(t, dir, "corde.local.json5", `{ browser: "edge" }`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Párrafos", cfg.Marker())
	require.Equal(t, export.FormatExcel, cfg.Format)
	require.Equal(t, "edge", cfg.Browser)
	require.Equal(t, "Next", cfg.Selectors.NextMarker)
	// untouched selectors keep their defaults
	require.Equal(t, "tt", cfg.Selectors.Container)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "lemas"
	require.ErrorContains(t, cfg.Validate(), "unknown result mode")

	cfg = Defaults()
	cfg.Format = "parquet"
	require.ErrorIs(t, cfg.Validate(), export.ErrUnknownFormat)

	cfg = Defaults()
	cfg.SubmitTimeoutSeconds = 0
	require.Error(t, cfg.Validate())
}
