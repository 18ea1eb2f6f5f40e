// Package spool watches a drop directory for batch files and feeds them
// through the ingestion pipeline.
//
// The watcher holds a flock-based single-instance lock, scans for files that
// were already waiting at startup, and then reacts to filesystem events. A
// settle delay keeps half-written files from being read early. Every batch
// ends as a results report plus the archived input; a file that fails to
// parse or process stays in the spool directory for the operator and never
// stops the loop.
package spool
