package testsupport

import (
	"context"
	"testing"

	"relish/internal/catalog"
	"relish/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedArea creates an area for tests using the provided store.
func SeedArea(t testing.TB, store *catalog.Store, name string, regionID int64, postalCodes ...string) *catalog.Area {
	t.Helper()

	area, err := store.AddArea(context.Background(), name, regionID, postalCodes)
	if err != nil {
		t.Fatalf("store.AddArea: %v", err)
	}
	return area
}

// SeedEntity creates an entity for tests using the provided store.
func SeedEntity(t testing.TB, store *catalog.Store, category catalog.Category, fields map[string]string) *catalog.Entity {
	t.Helper()

	entity, err := store.AddEntity(context.Background(), category, fields)
	if err != nil {
		t.Fatalf("store.AddEntity: %v", err)
	}
	return entity
}
