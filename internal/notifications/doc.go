// Package notifications publishes pipeline events to an ntfy topic.
//
// Events are formatted into short human-readable messages and posted over
// plain HTTP. When no ntfy URL is configured the service degrades to a no-op,
// and per-family config switches let operators silence batch, change, or
// error traffic independently. Callers treat delivery as best effort and log
// failures instead of aborting pipeline work.
package notifications
