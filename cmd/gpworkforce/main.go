package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gpworkforce/internal/config"
	"gpworkforce/internal/fetch"
	"gpworkforce/internal/infrastructure"
	"gpworkforce/internal/pipeline"
)

func main() {
	publicationURL := flag.String("publication", "", "NHS Digital publication page URL (overrides config)")
	workforceURL := flag.String("workforce-url", "", "direct URL of the practice-level ZIP, skipping page scraping")
	lookupStrategy := flag.String("lookup", "", "lookup strategy: ods | postcode (overrides config)")
	providersFile := flag.String("providers", "", "path to the GP providers XLSX (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *publicationURL != "" {
		cfg.Sources.WorkforcePublicationURL = *publicationURL
	}
	if *lookupStrategy != "" {
		cfg.Sources.LookupStrategy = *lookupStrategy
	}
	if *providersFile != "" {
		cfg.Sources.ProvidersFile = *providersFile
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("gpworkforce.log")
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.NewRunContext(context.Background())

	logger.InfoContext(ctx, "GP workforce by local authority starting",
		slog.String("publication_url", cfg.Sources.WorkforcePublicationURL),
		slog.String("lookup_strategy", cfg.Sources.LookupStrategy),
		slog.String("data_dir", paths.DataDir))

	client := fetch.NewClient(cfg.Fetch, logger)

	var resolver fetch.PublicationResolver
	if *workforceURL != "" {
		resolver = fetch.StaticResolver{URL: *workforceURL}
	} else {
		resolver = fetch.NewNHSPublicationResolver(client, logger)
	}

	run := pipeline.New(cfg, paths, client, resolver, logger)
	summary, err := run.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "run complete",
		slog.Int("local_authorities", summary.LocalAuthorities),
		slog.Int("matched_practices", summary.MatchedPractices),
		slog.Int("unmatched_practices", summary.Unmatched))
}
