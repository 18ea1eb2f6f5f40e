package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGeocoder(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		return errors.New("paths.spool_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		return errors.New("paths.archive_dir must be set")
	}
	if c.Paths.SpoolDir == c.Paths.ArchiveDir {
		return errors.New("paths.archive_dir must differ from paths.spool_dir")
	}
	return nil
}

func (c *Config) validateGeocoder() error {
	if !c.Geocoder.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Geocoder.BaseURL) == "" {
		return errors.New("geocoder.base_url must be set when geocoder.enabled is true")
	}
	if strings.TrimSpace(c.Geocoder.Country) == "" {
		return errors.New("geocoder.country must be set when geocoder.enabled is true")
	}
	if c.Geocoder.TimeoutSeconds <= 0 {
		return errors.New("geocoder.timeout_seconds must be positive")
	}
	if c.Geocoder.RequestDelayMS < 0 {
		return errors.New("geocoder.request_delay_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.FuzzyThreshold <= 0 || c.Matching.FuzzyThreshold > 1 {
		return errors.New("matching.fuzzy_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if c.Quality.StalenessDays <= 0 {
		return errors.New("quality.staleness_days must be positive")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.Concurrency <= 0 {
		return errors.New("ingest.concurrency must be positive")
	}
	if len(c.Ingest.Patterns) == 0 {
		return errors.New("ingest.patterns must include at least one pattern")
	}
	for _, pattern := range c.Ingest.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("ingest.patterns entry %q is not a valid glob", pattern)
		}
	}
	if c.Ingest.SettleMS <= 0 {
		return errors.New("ingest.settle_ms must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.NtfyToken != "" && strings.TrimSpace(c.Notifications.NtfyURL) == "" {
		return errors.New("notifications.ntfy_url must be set when notifications.ntfy_token is provided")
	}
	return nil
}
