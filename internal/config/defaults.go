package config

const (
	defaultDataDir           = "~/.local/share/relish"
	defaultSpoolDir          = "~/.local/share/relish/spool"
	defaultArchiveDir        = "~/.local/share/relish/archive"
	defaultGeocoderBaseURL   = "https://api.zippopotam.us"
	defaultGeocoderCountry   = "us"
	defaultGeocoderTimeout   = 5
	defaultGeocoderDelayMS   = 250
	defaultFuzzyThreshold    = 0.6
	defaultStalenessDays     = 30
	defaultIngestConcurrency = 2
	defaultIngestSettleMS    = 500
	defaultIngestRetention   = 60
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
)

func defaultIngestPatterns() []string {
	return []string{"*.txt", "*.csv"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			SpoolDir:   defaultSpoolDir,
			ArchiveDir: defaultArchiveDir,
		},
		Geocoder: Geocoder{
			Enabled:        true,
			BaseURL:        defaultGeocoderBaseURL,
			Country:        defaultGeocoderCountry,
			TimeoutSeconds: defaultGeocoderTimeout,
			RequestDelayMS: defaultGeocoderDelayMS,
		},
		Matching: Matching{
			FuzzyThreshold: defaultFuzzyThreshold,
		},
		Quality: Quality{
			StalenessDays: defaultStalenessDays,
		},
		Ingest: Ingest{
			Concurrency:   defaultIngestConcurrency,
			Patterns:      defaultIngestPatterns(),
			SettleMS:      defaultIngestSettleMS,
			RetentionDays: defaultIngestRetention,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Ingest:         true,
			Changes:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
