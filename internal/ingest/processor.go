package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"relish/internal/catalog"
	"relish/internal/location"
	"relish/internal/logging"
	"relish/internal/match"
	"relish/internal/services"
)

// DefaultConcurrency is the worker count used when none is configured. The
// external geocoder is the scarce resource being protected, so the pool is
// deliberately small.
const DefaultConcurrency = 2

// Resolver locates the administrative area for a postal code. Satisfied by
// the location resolver.
type Resolver interface {
	Resolve(ctx context.Context, postalCode string) (catalog.Area, location.Source, error)
}

// Matcher checks a candidate against existing catalog entities. Satisfied by
// the match package.
type Matcher interface {
	FindMatch(ctx context.Context, candidate match.Candidate) (match.Result, error)
}

// Options configures a Processor.
type Options struct {
	// Concurrency is the fixed worker count. Non-positive values fall back
	// to DefaultConcurrency.
	Concurrency int
	// CallDelay is the pause a worker takes after each remote lookup.
	CallDelay time.Duration
	Logger    *slog.Logger
}

// Processor runs batches of records through resolution and duplicate
// detection with a fixed worker pool.
type Processor struct {
	resolver    Resolver
	matcher     Matcher
	concurrency int
	callDelay   time.Duration
	logger      *slog.Logger
}

// NewProcessor builds a Processor over the resolver and matcher.
func NewProcessor(resolver Resolver, matcher Matcher, opts Options) *Processor {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		resolver:    resolver,
		matcher:     matcher,
		concurrency: concurrency,
		callDelay:   opts.CallDelay,
		logger:      logging.NewComponentLogger(logger, "ingest"),
	}
}

// ProcessBatch runs every record through the pipeline and returns the batch
// in submission order regardless of completion order. Record-level failures
// settle that record as an error and the batch continues; the call itself
// fails only for an empty batch.
//
// Cancelling the context stops dispatch: records already handed to a worker
// run to completion and are recorded, undispatched records come back still
// unprocessed, and the context error is returned alongside the partial
// results.
func (p *Processor) ProcessBatch(ctx context.Context, records []Record) ([]Record, error) {
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "process", "batch contains no records", nil)
	}

	ctx = services.WithBatchID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("batch started",
		logging.Int("records", len(records)),
		logging.Int("workers", p.concurrency))

	results := make([]Record, len(records))
	copy(results, records)
	for i := range results {
		if results[i].Status == "" {
			results[i].Status = StatusUnprocessed
		}
	}

	// In-flight records must finish even after cancellation; only dispatch
	// watches the caller's context.
	workCtx := context.WithoutCancel(ctx)

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range results {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	var group errgroup.Group
	for w := 0; w < p.concurrency; w++ {
		group.Go(func() error {
			for idx := range jobs {
				p.processRecord(workCtx, &results[idx])
			}
			return nil
		})
	}
	_ = group.Wait()

	summary := Summarize(results)
	logger.Info("batch finished",
		logging.Int("resolved", summary.Resolved),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("errors", summary.Errors),
		logging.Int("unprocessed", summary.Unprocessed))

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Processor) processRecord(ctx context.Context, record *Record) {
	if record.Status != StatusUnprocessed {
		return
	}
	ctx = services.WithLine(ctx, record.Line)
	logger := logging.WithContext(ctx, p.logger)

	category, ok := catalog.ParseCategory(record.Category)
	if !ok {
		if record.Category == "" {
			record.fail("category is required")
		} else {
			record.fail(fmt.Sprintf("unsupported category %q", record.Category))
		}
		return
	}

	area, source, err := p.resolver.Resolve(ctx, record.Location)
	if err != nil {
		logger.Debug("resolution failed", logging.Error(err))
		record.fail(err.Error())
		return
	}
	record.AreaName = area.Name
	record.Source = source
	if source == location.SourceRemote && p.callDelay > 0 {
		time.Sleep(p.callDelay)
	}

	result, err := p.matcher.FindMatch(ctx, match.Candidate{
		Name:     record.Name,
		Category: category,
		AreaID:   area.ID,
		AreaName: area.Name,
	})
	if err != nil {
		logger.Debug("match failed", logging.Error(err))
		record.fail(err.Error())
		return
	}
	record.MatchKind = result.Kind
	if result.Entity != nil {
		record.MatchedEntityID = result.Entity.ID
	}
	if result.Kind == match.MatchNone {
		record.settle(StatusResolved)
	} else {
		record.settle(StatusDuplicate)
	}
	logger.Debug("record settled",
		logging.String("status", string(record.Status)),
		logging.String("area", record.AreaName))
}
