// Package config holds the settings of a harvest run, read from corde.json5.
package config

import (
	"fmt"
	"time"

	"corde-harvester/lib/configutil"
	"corde-harvester/lib/export"
	"corde-harvester/lib/scrapers/corde"
)

const DefaultPath = "corde.json5"

type Config struct {
	SearchURL string `json:"search_url"`
	// Mode is a short result-mode name, see corde.Modes.
	Mode      string          `json:"mode"`
	Selectors corde.Selectors `json:"selectors"`

	Browser  string `json:"browser"`
	ExecPath string `json:"exec_path"`
	Headless bool   `json:"headless"`

	PageTimeoutSeconds   int     `json:"page_timeout_seconds"`
	SubmitTimeoutSeconds int     `json:"submit_timeout_seconds"`
	RequestsPerSecond    float64 `json:"requests_per_second"`
	MaxPages             int     `json:"max_pages"`

	OutputDir string `json:"output_dir"`
	Format    string `json:"format"`
	// CacheDir enables the page cache of replayed harvests.
	CacheDir string `json:"cache_dir"`
}

func Defaults() Config {
	return Config{
		SearchURL:            corde.SearchURL,
		Mode:                 "concord",
		Selectors:            corde.DefaultSelectors(),
		Browser:              "chrome",
		PageTimeoutSeconds:   30,
		SubmitTimeoutSeconds: 300,
		RequestsPerSecond:    1,
		OutputDir:            ".",
		Format:               export.FormatCSV,
	}
}

// Load reads path (and its .local override) over Defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg, err := configutil.ReadConfigWithDefaults(path, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := corde.ModeMarker(c.Mode); err != nil {
		return err
	}
	if _, err := export.Extension(c.Format); err != nil {
		return err
	}
	if c.PageTimeoutSeconds <= 0 || c.SubmitTimeoutSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative")
	}
	return nil
}

func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSeconds) * time.Second
}

func (c Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSeconds) * time.Second
}

// Marker is the label fragment of the configured result mode.
func (c Config) Marker() string {
	marker, _ := corde.ModeMarker(c.Mode)
	return marker
}
