package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeocoder()
	c.normalizeIngest()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		c.Paths.SpoolDir = defaultSpoolDir
	}
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		c.Paths.ArchiveDir = defaultArchiveDir
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGeocoder() {
	c.Geocoder.BaseURL = strings.TrimRight(strings.TrimSpace(c.Geocoder.BaseURL), "/")
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = defaultGeocoderBaseURL
	}
	c.Geocoder.Country = strings.ToLower(strings.TrimSpace(c.Geocoder.Country))
	if c.Geocoder.Country == "" {
		c.Geocoder.Country = defaultGeocoderCountry
	}
	if c.Geocoder.TimeoutSeconds <= 0 {
		c.Geocoder.TimeoutSeconds = defaultGeocoderTimeout
	}
	if c.Geocoder.RequestDelayMS < 0 {
		c.Geocoder.RequestDelayMS = defaultGeocoderDelayMS
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.Concurrency <= 0 {
		c.Ingest.Concurrency = defaultIngestConcurrency
	}
	if c.Ingest.SettleMS <= 0 {
		c.Ingest.SettleMS = defaultIngestSettleMS
	}
	if c.Ingest.RetentionDays < 0 {
		c.Ingest.RetentionDays = 0
	}
	if len(c.Ingest.Patterns) == 0 {
		c.Ingest.Patterns = defaultIngestPatterns()
		return
	}
	patterns := make([]string, 0, len(c.Ingest.Patterns))
	seen := make(map[string]struct{}, len(c.Ingest.Patterns))
	for _, pattern := range c.Ingest.Patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		patterns = append(patterns, trimmed)
	}
	if len(patterns) == 0 {
		patterns = defaultIngestPatterns()
	}
	c.Ingest.Patterns = patterns
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyURL = strings.TrimSpace(c.Notifications.NtfyURL)
	c.Notifications.NtfyToken = strings.TrimSpace(c.Notifications.NtfyToken)
	if c.Notifications.NtfyToken == "" {
		if value, ok := os.LookupEnv("RELISH_NTFY_TOKEN"); ok {
			c.Notifications.NtfyToken = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
