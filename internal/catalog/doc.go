// Package catalog persists areas, entities, and the cleanup change ledger in
// SQLite and exposes helpers for reading and mutating them.
//
// The Store manages database connections, schema initialization, postal index
// snapshots, and the transactional field updates that keep the change ledger
// consistent with entity state. Entities capture their attributes as free-form
// field maps so importers and the cleanup analyzer can coordinate without
// additional state.
//
// Treat this package as the single source of truth for catalog semantics; when
// you add new categories or ledger actions, update schema.sql and bump
// schemaVersion.
package catalog
