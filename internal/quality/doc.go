// Package quality derives cleanup proposals from catalog snapshots.
//
// Analysis is deterministic and side-effect free: entities are visited in ID
// order, detectors run in declaration order, and nothing is written back.
// Each finding carries a ChangeID derived from its kind and entity, so the
// same snapshot always names the same changes. Entities a detector cannot
// assess are reported as diagnostics alongside the proposals rather than
// failing the scan.
package quality
