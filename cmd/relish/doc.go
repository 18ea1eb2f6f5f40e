// Package main hosts the Relish CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into catalog
// imports, batch ingestion runs, cleanup analysis, change settlement, ledger
// inspection, and the long-running spool watcher. It centralizes configuration
// resolution and logger construction so subcommands can focus on presentation.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// The CLI owns serialization (tables, JSON) and nothing else.
package main
