// Package app wires configuration into the ingestion pipeline.
package app

import (
	"fmt"

	"github.com/newsproof/newsproof/internal/classify"
	"github.com/newsproof/newsproof/internal/fetch"
	"github.com/newsproof/newsproof/internal/ingest"
	"github.com/newsproof/newsproof/internal/storage"
)

// App bundles the wired pipeline and its closable resources.
type App struct {
	Service    *ingest.Service
	Classifier *classify.Client
	store      *storage.SubmissionStore
}

// New builds the pipeline from cfg: fetcher, classifier client, sqlite
// submission store and rate gate.
func New(cfg Config) (*App, error) {
	if cfg.MLBaseURL == "" {
		return nil, fmt.Errorf("missing ML API base URL")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "newsproof.db"
	}

	store, err := storage.NewSubmissionStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open submission store: %w", err)
	}

	fetcher := &fetch.Client{
		UserAgent:       cfg.FetchUserAgent,
		Timeout:         cfg.FetchTimeout,
		RedirectMaxHops: cfg.RedirectMaxHops,
	}
	classifier := classify.NewClient(cfg.MLBaseURL, cfg.MLAPIKey, cfg.MLTimeout)
	gate := ingest.NewSlidingWindowGate(cfg.RateLimit, cfg.RateWindow)

	return &App{
		Service:    ingest.NewService(fetcher, classifier, store, gate),
		Classifier: classifier,
		store:      store,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.store.Close()
}
