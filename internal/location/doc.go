// Package location resolves postal codes to administrative areas.
//
// The Resolver loads a read-only postal index from the catalog at startup and
// answers lookups from it first, falling back to one remote geocode call per
// miss. Remote failures and unknown codes settle on the designated Unresolved
// area rather than erroring, so bulk ingestion keeps moving when the external
// service is flaky. The index is never written after load and remote results
// are not cached back.
package location
