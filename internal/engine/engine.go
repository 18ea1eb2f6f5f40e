package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"relish/internal/catalog"
	"relish/internal/config"
	"relish/internal/geocode"
	"relish/internal/ingest"
	"relish/internal/ledger"
	"relish/internal/location"
	"relish/internal/logging"
	"relish/internal/match"
	"relish/internal/notifications"
	"relish/internal/quality"
)

// Engine is the composition root for the reconciliation pipeline.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *catalog.Store
	resolver  *location.Resolver
	matcher   *match.Matcher
	analyzer  *quality.Analyzer
	changes   *ledger.Service
	processor *ingest.Processor
	notifier  notifications.Service
}

// New opens the catalog store and assembles the pipeline services. The
// postal index must hold at least one verified area; bootstrapping an empty
// database goes through the import commands, which do not build an engine.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, err
	}

	var lookup geocode.Lookuper
	if cfg.Geocoder.Enabled && strings.TrimSpace(cfg.Geocoder.BaseURL) != "" {
		client, err := geocode.New(cfg.Geocoder.BaseURL, cfg.Geocoder.Country,
			geocode.WithHTTPClient(&http.Client{Timeout: geocoderTimeout(cfg)}))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		lookup = client
	}

	resolver, err := location.NewResolver(ctx, store, location.Options{
		Lookup:  lookup,
		Timeout: geocoderTimeout(cfg),
		Logger:  logging.NewComponentLogger(logger, "location"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	matcher := match.NewMatcher(store, match.Options{
		Threshold: cfg.Matching.FuzzyThreshold,
		Logger:    logging.NewComponentLogger(logger, "match"),
	})
	analyzer := quality.NewAnalyzer(store, quality.Options{
		StalenessAge: time.Duration(cfg.Quality.StalenessDays) * 24 * time.Hour,
		Logger:       logging.NewComponentLogger(logger, "quality"),
	})
	changes := ledger.NewService(store, analyzer, logging.NewComponentLogger(logger, "ledger"))
	processor := ingest.NewProcessor(resolver, matcher, ingest.Options{
		Concurrency: cfg.Ingest.Concurrency,
		CallDelay:   time.Duration(cfg.Geocoder.RequestDelayMS) * time.Millisecond,
		Logger:      logging.NewComponentLogger(logger, "ingest"),
	})

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		resolver:  resolver,
		matcher:   matcher,
		analyzer:  analyzer,
		changes:   changes,
		processor: processor,
		notifier:  notifications.NewService(cfg),
	}, nil
}

// Close releases the catalog store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Notifier exposes the configured notification service for callers that
// publish their own events, such as the spool watcher.
func (e *Engine) Notifier() notifications.Service {
	return e.notifier
}

// AnalyzeForCleanup runs the data-quality detectors over one category.
func (e *Engine) AnalyzeForCleanup(ctx context.Context, category catalog.Category) ([]quality.Proposal, []quality.Diagnostic, error) {
	return e.analyzer.Analyze(ctx, category)
}

// ApplyCleanupChanges applies the identified proposals and reports the
// per-change dispositions.
func (e *Engine) ApplyCleanupChanges(ctx context.Context, category catalog.Category, ids []quality.ChangeID) (ledger.Outcome, error) {
	outcome, err := e.changes.Apply(ctx, category, ids)
	if err != nil {
		return outcome, err
	}
	e.notify(ctx, notifications.EventChangesApplied, notifications.Payload{
		"category": string(category),
		"applied":  strconv.Itoa(outcome.Applied),
		"skipped":  strconv.Itoa(outcome.Skipped),
		"failed":   strconv.Itoa(outcome.Failed),
	})
	return outcome, nil
}

// RejectCleanupChanges records rejections for the identified proposals.
func (e *Engine) RejectCleanupChanges(ctx context.Context, category catalog.Category, ids []quality.ChangeID) (int, error) {
	rejected, err := e.changes.Reject(ctx, category, ids)
	if err != nil {
		return rejected, err
	}
	e.notify(ctx, notifications.EventChangesRejected, notifications.Payload{
		"category": string(category),
		"rejected": strconv.Itoa(rejected),
	})
	return rejected, nil
}

// ProcessBatch runs submitted records through resolution and duplicate
// detection.
func (e *Engine) ProcessBatch(ctx context.Context, records []ingest.Record) ([]ingest.Record, error) {
	return e.processor.ProcessBatch(ctx, records)
}

// ResolveLocation resolves a postal code to a verified area.
func (e *Engine) ResolveLocation(ctx context.Context, postalCode string) (catalog.Area, location.Source, error) {
	return e.resolver.Resolve(ctx, postalCode)
}

// FindMatch checks one candidate against the catalog for duplicates.
func (e *Engine) FindMatch(ctx context.Context, candidate match.Candidate) (match.Result, error) {
	return e.matcher.FindMatch(ctx, candidate)
}

func (e *Engine) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := e.notifier.Publish(ctx, event, payload); err != nil {
		e.logger.Warn("notification failed", logging.Error(err))
	}
}

func geocoderTimeout(cfg *config.Config) time.Duration {
	if cfg.Geocoder.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(cfg.Geocoder.TimeoutSeconds) * time.Second
}
