package engine_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"relish/internal/catalog"
	"relish/internal/config"
	"relish/internal/engine"
	"relish/internal/ingest"
	"relish/internal/location"
	"relish/internal/match"
	"relish/internal/quality"
	"relish/internal/services"
	"relish/internal/testsupport"
)

func seedCatalog(t *testing.T, cfg *config.Config) *catalog.Store {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedArea(t, store, "East Village", 1, "10003")
	testsupport.SeedEntity(t, store, catalog.CategoryVenue, map[string]string{
		"name": "Axe Handle Pizza",
		"area": "East Village",
	})
	return store
}

func newEngine(t *testing.T, cfg *config.Config) *engine.Engine {
	t.Helper()
	eng, err := engine.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Errorf("engine.Close: %v", err)
		}
	})
	return eng
}

func TestNewFailsWithoutPostalIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := engine.New(context.Background(), cfg, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty postal index, got %v", err)
	}
}

func TestEngineResolvesAndMatches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedCatalog(t, cfg)
	eng := newEngine(t, cfg)
	ctx := context.Background()

	area, source, err := eng.ResolveLocation(ctx, "10003")
	if err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if area.Name != "East Village" || source != location.SourceLocal {
		t.Fatalf("unexpected resolution %q via %q", area.Name, source)
	}

	result, err := eng.FindMatch(ctx, match.Candidate{
		Name:     "Axe Handle Pizza",
		Category: catalog.CategoryVenue,
		AreaID:   area.ID,
	})
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if result.Kind != match.MatchExact || result.Entity == nil {
		t.Fatalf("expected exact match, got %+v", result)
	}
}

func TestEngineProcessBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedCatalog(t, cfg)
	eng := newEngine(t, cfg)

	records := []ingest.Record{
		{Line: 1, Name: "Axe Handle Pizza", Category: "venue", Location: "10003", Status: ingest.StatusUnprocessed},
		{Line: 2, Name: "Crispy Panisse", Category: "venue", Location: "10003", Status: ingest.StatusUnprocessed},
	}
	results, err := eng.ProcessBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if results[0].Status != ingest.StatusDuplicate {
		t.Fatalf("expected line 1 to be a duplicate, got %+v", results[0])
	}
	if results[1].Status != ingest.StatusResolved || results[1].AreaName != "East Village" {
		t.Fatalf("expected line 2 to resolve into East Village, got %+v", results[1])
	}
}

func TestEngineAppliesChangesAndNotifies(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyURL = server.URL
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedArea(t, store, "East Village", 1, "10003")
	entity := testsupport.SeedEntity(t, store, catalog.CategoryVenue, map[string]string{
		"name":  "Axe Handle Pizza",
		"area":  "East Village",
		"phone": "2125551234",
	})

	eng := newEngine(t, cfg)
	ctx := context.Background()

	proposals, diagnostics, err := eng.AnalyzeForCleanup(ctx, catalog.CategoryVenue)
	if err != nil {
		t.Fatalf("AnalyzeForCleanup: %v", err)
	}
	if len(diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics %+v", diagnostics)
	}
	if len(proposals) != 1 || proposals[0].Field != catalog.FieldPhone {
		t.Fatalf("expected one phone proposal, got %+v", proposals)
	}

	outcome, err := eng.ApplyCleanupChanges(ctx, catalog.CategoryVenue, []quality.ChangeID{proposals[0].ID})
	if err != nil {
		t.Fatalf("ApplyCleanupChanges: %v", err)
	}
	if outcome.Applied != 1 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	updated, err := store.GetEntityByID(ctx, entity.ID)
	if err != nil {
		t.Fatalf("GetEntityByID: %v", err)
	}
	if got := updated.Field(catalog.FieldPhone); got != "(212) 555-1234" {
		t.Fatalf("expected canonical phone, got %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(titles) != 1 || titles[0] != "Relish - Changes Applied" {
		t.Fatalf("expected a changes applied notification, got %v", titles)
	}
	if !strings.Contains(bodies[0], "Applied 1 venue changes") {
		t.Fatalf("unexpected notification body %q", bodies[0])
	}
}

func TestEngineRejectRecordsAndNotifies(t *testing.T) {
	var titles []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyURL = server.URL
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedArea(t, store, "East Village", 1, "10003")
	entity := testsupport.SeedEntity(t, store, catalog.CategoryVenue, map[string]string{
		"name":  "Axe Handle Pizza",
		"area":  "East Village",
		"phone": "2125551234",
	})

	eng := newEngine(t, cfg)
	ctx := context.Background()

	proposals, _, err := eng.AnalyzeForCleanup(ctx, catalog.CategoryVenue)
	if err != nil {
		t.Fatalf("AnalyzeForCleanup: %v", err)
	}
	rejected, err := eng.RejectCleanupChanges(ctx, catalog.CategoryVenue, []quality.ChangeID{proposals[0].ID})
	if err != nil {
		t.Fatalf("RejectCleanupChanges: %v", err)
	}
	if rejected != 1 {
		t.Fatalf("expected one rejection, got %d", rejected)
	}

	updated, err := store.GetEntityByID(ctx, entity.ID)
	if err != nil {
		t.Fatalf("GetEntityByID: %v", err)
	}
	if got := updated.Field(catalog.FieldPhone); got != "2125551234" {
		t.Fatalf("expected rejected entity to keep its raw phone, got %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(titles) != 1 || titles[0] != "Relish - Changes Rejected" {
		t.Fatalf("expected a changes rejected notification, got %v", titles)
	}
}
