package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.MLBaseURL == "" {
		cfg.MLBaseURL = os.Getenv("ML_API_URL")
	}
	if cfg.MLAPIKey == "" {
		cfg.MLAPIKey = os.Getenv("ML_API_KEY")
	}
	if cfg.MLTimeout == 0 {
		if d, ok := envDuration("ML_API_TIMEOUT"); ok {
			cfg.MLTimeout = d
		}
	}

	if cfg.FetchTimeout == 0 {
		if d, ok := envDuration("FETCH_TIMEOUT"); ok {
			cfg.FetchTimeout = d
		}
	}
	if cfg.FetchUserAgent == "" {
		cfg.FetchUserAgent = os.Getenv("FETCH_USER_AGENT")
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = os.Getenv("DATABASE_PATH")
	}

	if cfg.RateLimit == 0 {
		if s := os.Getenv("SUBMISSION_RATE_LIMIT"); s != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
				cfg.RateLimit = n
			}
		}
	}
	if cfg.RateWindow == 0 {
		if d, ok := envDuration("SUBMISSION_RATE_WINDOW"); ok {
			cfg.RateWindow = d
		}
	}

	if !cfg.Verbose {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv("VERBOSE"))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				cfg.Verbose = true
			}
		}
	}
}

// envDuration reads a duration env var, accepting either a Go duration
// string ("30s") or a bare number of seconds ("30").
func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
