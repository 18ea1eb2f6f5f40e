// Package geocode provides the minimal postal lookup client used during
// location resolution.
//
// It exposes a single Lookup operation against a zippopotam-style endpoint and
// classifies failures with the services error markers so the resolver can tell
// recoverable misses from hard faults. Responses are strongly typed and decoded
// strictly; payloads that drift from the documented shape surface as external
// errors rather than silently resolving to the wrong place. Options allow tests
// to supply custom HTTP clients without modifying production code.
package geocode
