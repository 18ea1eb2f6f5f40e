package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"relish/internal/catalog"
	"relish/internal/ingest"
	"relish/internal/location"
	"relish/internal/match"
	"relish/internal/services"
)

type stubResolver struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	maxSeen  int

	delays  map[string]time.Duration
	failFor map[string]error
	source  location.Source
	started chan struct{}
	release chan struct{}
}

func (s *stubResolver) Resolve(ctx context.Context, postalCode string) (catalog.Area, location.Source, error) {
	s.mu.Lock()
	s.calls++
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if d := s.delays[postalCode]; d > 0 {
		time.Sleep(d)
	}
	if err := s.failFor[postalCode]; err != nil {
		return catalog.Area{}, location.SourceNone, err
	}
	source := s.source
	if source == "" {
		source = location.SourceLocal
	}
	return catalog.Area{ID: 1, Name: "Downtown"}, source, nil
}

func (s *stubResolver) stats() (calls, maxSeen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.maxSeen
}

type stubMatcher struct {
	matches map[string]match.Result
	errFor  map[string]error
}

func (s *stubMatcher) FindMatch(ctx context.Context, candidate match.Candidate) (match.Result, error) {
	if err := s.errFor[candidate.Name]; err != nil {
		return match.Result{}, err
	}
	if result, ok := s.matches[candidate.Name]; ok {
		return result, nil
	}
	return match.Result{Candidate: candidate, Kind: match.MatchNone}, nil
}

func unprocessed(line int, name, category, loc string) ingest.Record {
	return ingest.Record{Line: line, Name: name, Category: category, Location: loc, Status: ingest.StatusUnprocessed}
}

func TestProcessBatchPreservesSubmissionOrder(t *testing.T) {
	resolver := &stubResolver{delays: map[string]time.Duration{"slow": 60 * time.Millisecond}}
	processor := ingest.NewProcessor(resolver, &stubMatcher{}, ingest.Options{Concurrency: 2})

	records := []ingest.Record{
		unprocessed(1, "First", "venue", "slow"),
		unprocessed(2, "Second", "venue", "10001"),
		unprocessed(3, "Third", "venue", "10002"),
	}
	results, err := processor.ProcessBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if results[i].Name != want || results[i].Line != i+1 {
			t.Fatalf("submission order lost at %d: %+v", i, results[i])
		}
		if results[i].Status != ingest.StatusResolved {
			t.Fatalf("record %d status = %q", i, results[i].Status)
		}
		if results[i].AreaName != "Downtown" || results[i].Source != location.SourceLocal {
			t.Fatalf("record %d missing resolution: %+v", i, results[i])
		}
	}
}

func TestProcessBatchRunsExactlyTwoWorkersByDefault(t *testing.T) {
	resolver := &stubResolver{delays: map[string]time.Duration{
		"a": 20 * time.Millisecond, "b": 20 * time.Millisecond, "c": 20 * time.Millisecond,
		"d": 20 * time.Millisecond, "e": 20 * time.Millisecond, "f": 20 * time.Millisecond,
	}}
	processor := ingest.NewProcessor(resolver, &stubMatcher{}, ingest.Options{})

	var records []ingest.Record
	for i, loc := range []string{"a", "b", "c", "d", "e", "f"} {
		records = append(records, unprocessed(i+1, "Venue", "venue", loc))
	}
	if _, err := processor.ProcessBatch(context.Background(), records); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	calls, maxSeen := resolver.stats()
	if calls != 6 {
		t.Fatalf("expected 6 lookups, got %d", calls)
	}
	if maxSeen > 2 {
		t.Fatalf("worker pool exceeded its bound: %d concurrent lookups", maxSeen)
	}
	if maxSeen < 2 {
		t.Fatalf("worker pool never ran in parallel: %d concurrent lookups", maxSeen)
	}
}

func TestProcessBatchIsolatesRecordFailures(t *testing.T) {
	resolver := &stubResolver{failFor: map[string]error{
		"bad": services.Wrap(services.ErrExternal, "geocode", "lookup", "decode lookup response", nil),
	}}
	processor := ingest.NewProcessor(resolver, &stubMatcher{}, ingest.Options{Concurrency: 2})

	preFailed := ingest.Record{Line: 1, Category: "venue", Status: ingest.StatusError, Error: "name is required"}
	records := []ingest.Record{
		preFailed,
		unprocessed(2, "Broken Lookup", "venue", "bad"),
		unprocessed(3, "Fine", "venue", "10001"),
		unprocessed(4, "Wrong Kind", "gadget", "10002"),
	}
	results, err := processor.ProcessBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if results[0].Status != ingest.StatusError || results[0].Error != "name is required" {
		t.Fatalf("parser error record must pass through untouched: %+v", results[0])
	}
	if results[1].Status != ingest.StatusError || !strings.Contains(results[1].Error, "decode lookup response") {
		t.Fatalf("unexpected failed record: %+v", results[1])
	}
	if results[2].Status != ingest.StatusResolved {
		t.Fatalf("healthy record affected by failures: %+v", results[2])
	}
	if results[3].Status != ingest.StatusError || !strings.Contains(results[3].Error, "unsupported category") {
		t.Fatalf("unexpected category failure: %+v", results[3])
	}

	calls, _ := resolver.stats()
	if calls != 2 {
		t.Fatalf("resolver should only see processable records, got %d calls", calls)
	}
}

func TestProcessBatchMarksDuplicates(t *testing.T) {
	entity := &catalog.Entity{ID: 42, Category: catalog.CategoryVenue}
	matcher := &stubMatcher{matches: map[string]match.Result{
		"Joe's Pizza": {Entity: entity, Kind: match.MatchExact, Similarity: 1.0},
	}}
	processor := ingest.NewProcessor(&stubResolver{}, matcher, ingest.Options{Concurrency: 1})

	records := []ingest.Record{
		unprocessed(1, "Joe's Pizza", "venue", "10003"),
		unprocessed(2, "Brand New Spot", "venue", "10003"),
	}
	results, err := processor.ProcessBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if results[0].Status != ingest.StatusDuplicate || results[0].MatchedEntityID != 42 || results[0].MatchKind != match.MatchExact {
		t.Fatalf("unexpected duplicate record: %+v", results[0])
	}
	if results[1].Status != ingest.StatusResolved || results[1].MatchedEntityID != 0 {
		t.Fatalf("unexpected fresh record: %+v", results[1])
	}
}

func TestProcessBatchCancellationStopsDispatch(t *testing.T) {
	resolver := &stubResolver{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	processor := ingest.NewProcessor(resolver, &stubMatcher{}, ingest.Options{Concurrency: 2})

	records := []ingest.Record{
		unprocessed(1, "One", "venue", "10001"),
		unprocessed(2, "Two", "venue", "10002"),
		unprocessed(3, "Three", "venue", "10003"),
		unprocessed(4, "Four", "venue", "10004"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	type batchResult struct {
		results []ingest.Record
		err     error
	}
	done := make(chan batchResult, 1)
	go func() {
		results, err := processor.ProcessBatch(ctx, records)
		done <- batchResult{results, err}
	}()

	// Wait until both workers hold an in-flight lookup, then cancel and let
	// them finish. The short pause lets dispatch observe the cancellation
	// while both lookups are still held open.
	<-resolver.started
	<-resolver.started
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(resolver.release)

	outcome := <-done
	if !errors.Is(outcome.err, context.Canceled) {
		t.Fatalf("expected context error alongside partial results, got %v", outcome.err)
	}
	if len(outcome.results) != 4 {
		t.Fatalf("expected all records back, got %d", len(outcome.results))
	}
	for i := 0; i < 2; i++ {
		if outcome.results[i].Status != ingest.StatusResolved {
			t.Fatalf("in-flight record %d should finish, got %q", i+1, outcome.results[i].Status)
		}
	}
	for i := 2; i < 4; i++ {
		if outcome.results[i].Status != ingest.StatusUnprocessed {
			t.Fatalf("undispatched record %d should stay unprocessed, got %q", i+1, outcome.results[i].Status)
		}
	}
}

func TestProcessBatchRejectsEmptyBatch(t *testing.T) {
	processor := ingest.NewProcessor(&stubResolver{}, &stubMatcher{}, ingest.Options{})
	if _, err := processor.ProcessBatch(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
