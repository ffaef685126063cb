package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested sections
// map naturally to flags/env. Durations are strings in Go duration syntax
// ("30s", "1h").
type FileConfig struct {
	ML struct {
		BaseURL string `yaml:"base" json:"base"`
		APIKey  string `yaml:"key" json:"key"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"ml" json:"ml"`

	Fetch struct {
		Timeout   string `yaml:"timeout" json:"timeout"`
		UserAgent string `yaml:"userAgent" json:"userAgent"`
		MaxHops   int    `yaml:"maxRedirects" json:"maxRedirects"`
	} `yaml:"fetch" json:"fetch"`

	Database struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"database" json:"database"`

	RateLimit struct {
		Limit  int    `yaml:"limit" json:"limit"`
		Window string `yaml:"window" json:"window"`
	} `yaml:"rateLimit" json:"rateLimit"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset/zero in cfg. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if cfg.MLBaseURL == "" && fc.ML.BaseURL != "" {
		cfg.MLBaseURL = fc.ML.BaseURL
	}
	if cfg.MLAPIKey == "" && fc.ML.APIKey != "" {
		cfg.MLAPIKey = fc.ML.APIKey
	}
	if cfg.MLTimeout == 0 {
		if d, ok := parseDuration(fc.ML.Timeout); ok {
			cfg.MLTimeout = d
		}
	}

	if cfg.FetchTimeout == 0 {
		if d, ok := parseDuration(fc.Fetch.Timeout); ok {
			cfg.FetchTimeout = d
		}
	}
	if cfg.FetchUserAgent == "" && fc.Fetch.UserAgent != "" {
		cfg.FetchUserAgent = fc.Fetch.UserAgent
	}
	if cfg.RedirectMaxHops == 0 && fc.Fetch.MaxHops > 0 {
		cfg.RedirectMaxHops = fc.Fetch.MaxHops
	}

	if cfg.DatabasePath == "" && fc.Database.Path != "" {
		cfg.DatabasePath = fc.Database.Path
	}

	if cfg.RateLimit == 0 && fc.RateLimit.Limit > 0 {
		cfg.RateLimit = fc.RateLimit.Limit
	}
	if cfg.RateWindow == 0 {
		if d, ok := parseDuration(fc.RateLimit.Window); ok {
			cfg.RateWindow = d
		}
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

func parseDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
