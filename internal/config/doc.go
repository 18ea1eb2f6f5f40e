// Package config loads, normalizes, and validates Relish configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RELISH_NTFY_TOKEN. The Config type centralizes every knob the CLI and spool
// watcher need, so data directories, geocoder settings, and matcher thresholds
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
