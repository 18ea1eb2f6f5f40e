// Package ledger settles cleanup proposals: applying approved field rewrites
// and recording rejections, each as an immutable ledger entry.
//
// Apply never trusts identifiers from a cached analysis. It re-derives the
// proposal set, intersects with the request, and writes each accepted change
// inside one immediate transaction whose first step is the already-applied
// check. Partial failure is in-band: a change that cannot be persisted gets a
// failed entry and the rest of the call proceeds.
package ledger
