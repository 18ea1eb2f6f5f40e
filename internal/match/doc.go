// Package match answers whether a candidate record already exists in the
// catalog.
//
// Matching normalizes names and compares the candidate against entities of
// the same category and area: identical canonical names are exact matches,
// token-overlap similarity at or above the configured threshold is fuzzy, and
// anything below reports none. Ties at equal similarity prefer the most
// recently modified entity. The matcher is a pure reader; it never mutates
// the catalog and caches nothing across calls.
package match
