package app

import "time"

// Config holds runtime configuration for the ingestion and analysis core.
type Config struct {
	// Classifier service
	MLBaseURL string
	MLAPIKey  string
	MLTimeout time.Duration

	// Page fetching
	FetchTimeout    time.Duration
	FetchUserAgent  string
	RedirectMaxHops int

	// Submission store
	DatabasePath string

	// Rate limiting
	RateLimit  int
	RateWindow time.Duration

	// Behavior
	Verbose bool
}
