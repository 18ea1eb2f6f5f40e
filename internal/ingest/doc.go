// Package ingest turns pasted operator batches into annotated records.
//
// A fixed pool of workers drains one shared channel, so at most the
// configured number of geocoder lookups are ever in flight. Results always
// come back in submission order; completion order never leaks out. One bad
// record settles as an error without disturbing its neighbors, and
// cancellation stops dispatch while letting in-flight records finish.
package ingest
