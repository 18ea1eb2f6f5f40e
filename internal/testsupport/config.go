// Package testsupport provides shared helpers for package tests: temp-backed
// configs, catalog stores, and seed data.
package testsupport

import (
	"path/filepath"
	"testing"

	"relish/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The geocoder is disabled so tests never reach the network unless an option
// points it at a local server.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.SpoolDir = filepath.Join(base, "spool")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Geocoder.Enabled = false
	cfgVal.Ingest.SettleMS = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGeocoder points the geocoder at the provided base URL and enables it.
func WithGeocoder(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Geocoder.Enabled = true
		b.cfg.Geocoder.BaseURL = baseURL
		b.cfg.Geocoder.RequestDelayMS = 0
	}
}

// WithConcurrency overrides the ingest worker count on the test config.
func WithConcurrency(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.Concurrency = workers
	}
}

// WithFuzzyThreshold overrides the duplicate matching threshold.
func WithFuzzyThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.FuzzyThreshold = threshold
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
