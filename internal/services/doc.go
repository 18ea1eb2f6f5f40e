// Package services defines shared utilities consumed by the reconciliation
// components and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, record line numbers, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs transient vs external) uniform across
//     components.
//
// Use these helpers when wiring new engine logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
