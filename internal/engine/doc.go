// Package engine assembles the catalog store and every pipeline service into
// a single facade.
//
// New wires the store, postal resolver, duplicate matcher, quality analyzer,
// change ledger, batch processor, and notifier from one configuration. The
// facade is what cmd/relish and the spool watcher call; packages below it
// never reach across to each other's internals.
package engine
