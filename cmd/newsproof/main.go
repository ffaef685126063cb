package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/newsproof/newsproof/internal/app"
	"github.com/newsproof/newsproof/internal/ingest"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Best-effort .env for local development.
	_ = godotenv.Load()

	var (
		submitURL  string
		submitText string
		readStdin  bool
		userID     string
		mlBase     string
		mlKey      string
		mlTimeout  time.Duration
		dbPath     string
		configPath string
		checkOnly  bool
		verbose    bool
	)

	flag.StringVar(&submitURL, "url", "", "News article URL to fetch, extract and classify")
	flag.StringVar(&submitText, "text", "", "Raw news text to classify")
	flag.BoolVar(&readStdin, "stdin", false, "Read news text from standard input")
	flag.StringVar(&userID, "user", "cli", "User identity for rate limiting and storage")
	flag.StringVar(&mlBase, "ml.base", os.Getenv("ML_API_URL"), "Base URL of the classification service")
	flag.StringVar(&mlKey, "ml.key", os.Getenv("ML_API_KEY"), "API key for the classification service (optional)")
	flag.DurationVar(&mlTimeout, "ml.timeout", 0, "Overall timeout per classification request (default 30s)")
	flag.StringVar(&dbPath, "db", os.Getenv("DATABASE_PATH"), "Path to the sqlite submission database")
	flag.StringVar(&configPath, "config", os.Getenv("NEWSPROOF_CONFIG"), "Path to YAML/JSON config file")
	flag.BoolVar(&checkOnly, "check", false, "Only check classifier service health and exit")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := app.Config{
		MLBaseURL:    mlBase,
		MLAPIKey:     mlKey,
		MLTimeout:    mlTimeout,
		DatabasePath: dbPath,
		Verbose:      verbose,
	}
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config file")
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("setup failed")
	}
	defer a.Close()

	ctx := context.Background()

	if checkOnly {
		health := a.Classifier.Health(ctx)
		printJSON(health)
		if health.Error != "" {
			os.Exit(1)
		}
		return
	}

	if readStdin && submitText == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("read stdin")
		}
		submitText = string(b)
	}

	var outcome *ingest.Outcome
	switch {
	case submitURL != "" && submitText != "":
		log.Fatal().Msg("use either -url or -text, not both")
	case submitURL != "":
		outcome, err = a.Service.SubmitURL(ctx, userID, submitURL)
	case submitText != "":
		outcome, err = a.Service.SubmitText(ctx, userID, submitText)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		if errors.Is(err, ingest.ErrRateLimited) {
			log.Fatal().Msg("submission rate limit reached")
		}
		log.Fatal().Err(err).Msg("submission failed")
	}

	printJSON(outcome)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
