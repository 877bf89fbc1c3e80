// Package pipeline wires the fetch, transform and export stages into the
// single synchronous pass that produces the GP-workforce-by-local-authority
// summary.
package pipeline

import (
	"context"
	"log/slog"

	"gpworkforce/internal/config"
	"gpworkforce/internal/dataprocessing"
	apperrors "gpworkforce/internal/errors"
	"gpworkforce/internal/exporter"
	"gpworkforce/internal/fetch"
	"gpworkforce/pkg/contracts/domain"
)

const (
	workforceArchiveName = "gp_workforce_practice.zip"
	populationFileName   = "population_estimates.xlsx"
	summaryLogTopBottomN = 10
)

// Downloader is the slice of fetch.Client the pipeline depends on.
type Downloader interface {
	DownloadFile(ctx context.Context, url, dest string) error
	DownloadFirst(ctx context.Context, urls []string, dest string) (string, error)
}

// Pipeline runs the batch: resolve and download sources, read the
// workforce table, map practices to local authorities, aggregate, merge
// population and export the summary CSV.
type Pipeline struct {
	cfg      *config.Config
	paths    *config.Paths
	client   Downloader
	resolver fetch.PublicationResolver
	logger   *slog.Logger
}

// New creates a pipeline from configuration and collaborators.
func New(cfg *config.Config, paths *config.Paths, client Downloader, resolver fetch.PublicationResolver, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		paths:    paths,
		client:   client,
		resolver: resolver,
		logger:   logger,
	}
}

// Run executes the full pass and returns the run summary. Fatal errors
// (unreadable inputs, missing required columns) abort the run; unmatched
// practices and missing population data are recoverable and only reflected
// in the summary.
func (p *Pipeline) Run(ctx context.Context) (dataprocessing.RunSummary, error) {
	var summary dataprocessing.RunSummary

	workforcePath, err := p.fetchWorkforce(ctx)
	if err != nil {
		return summary, err
	}

	records, err := dataprocessing.NewWorkforceReader(p.logger).ReadFile(ctx, workforcePath)
	if err != nil {
		return summary, err
	}

	lookup, keyFn, err := p.loadLookup(ctx)
	if err != nil {
		return summary, err
	}

	mapped, unmatched := dataprocessing.NewMapper(keyFn, p.logger).Map(ctx, records, lookup)
	aggregates := dataprocessing.Aggregate(mapped)

	population := p.fetchPopulation(ctx)

	rows := dataprocessing.NewPopulationMerger(p.logger).Merge(ctx, aggregates, population)

	writer := exporter.NewCSVWriter(p.paths)
	if err := writer.WriteSummary(p.cfg.Paths.OutputFile, rows); err != nil {
		return summary, apperrors.NewStorageError("failed to write summary CSV", err)
	}

	summary = dataprocessing.Summarize(rows, unmatched, summaryLogTopBottomN)
	dataprocessing.LogSummary(ctx, p.logger, summary)

	p.logger.InfoContext(ctx, "summary written",
		slog.String("output", p.paths.GetDataPath(p.cfg.Paths.OutputFile)),
		slog.Int("local_authorities", len(rows)))

	return summary, nil
}

// fetchWorkforce resolves the practice-level download link and downloads
// the archive, unless a cached copy already exists.
func (p *Pipeline) fetchWorkforce(ctx context.Context) (string, error) {
	dest := p.paths.GetDataPath(workforceArchiveName)

	downloadURL, err := p.resolver.ResolveDownloadURL(ctx, p.cfg.Sources.WorkforcePublicationURL)
	if err != nil {
		return "", err
	}

	if err := p.client.DownloadFile(ctx, downloadURL, dest); err != nil {
		return "", err
	}

	return dest, nil
}

// loadLookup builds the practice-to-LA lookup for the configured strategy.
func (p *Pipeline) loadLookup(ctx context.Context) (dataprocessing.LookupTable, dataprocessing.KeyFunc, error) {
	switch p.cfg.Sources.LookupStrategy {
	case "postcode":
		table, err := dataprocessing.NewPostcodeLoader(p.logger).Load(ctx, p.cfg.Sources.PostcodeLookupFile)
		return table, dataprocessing.PostcodeKey, err
	default:
		table, err := dataprocessing.NewProvidersLoader(p.logger).Load(ctx, p.cfg.Sources.ProvidersFile)
		return table, dataprocessing.PracticeCodeKey, err
	}
}

// fetchPopulation downloads and parses the ONS estimates. Failure here is
// recoverable: the run continues with an empty population table and the
// output rows carry no rates.
func (p *Pipeline) fetchPopulation(ctx context.Context) []domain.PopulationRecord {
	dest := p.paths.GetDataPath(populationFileName)

	if _, err := p.client.DownloadFirst(ctx, p.cfg.Sources.PopulationURLs, dest); err != nil {
		p.logger.WarnContext(ctx, "could not download population data, rates will be empty",
			slog.String("error", err.Error()))
		return nil
	}

	population, err := dataprocessing.NewPopulationReader(p.logger).ReadFile(ctx, dest)
	if err != nil {
		p.logger.WarnContext(ctx, "could not parse population data, rates will be empty",
			slog.String("error", err.Error()))
		return nil
	}

	return population
}
