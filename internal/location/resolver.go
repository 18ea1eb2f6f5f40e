package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"relish/internal/catalog"
	"relish/internal/geocode"
	"relish/internal/logging"
	"relish/internal/normalize"
	"relish/internal/services"
)

// Source reports where a resolution answer came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceNone   Source = "none"
)

// UnresolvedAreaName is the designated area for records whose postal code
// cannot be resolved locally or remotely.
const UnresolvedAreaName = "Unresolved"

const defaultLookupTimeout = 5 * time.Second

// Options configures a Resolver.
type Options struct {
	// Lookup performs remote postal lookups. Nil disables the remote
	// fallback and the resolver answers from the local index only.
	Lookup geocode.Lookuper
	// Timeout bounds each remote lookup. Zero means the 5s default.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Resolver answers postal-code lookups from an in-memory index with an
// optional remote fallback.
type Resolver struct {
	index      map[string]catalog.Area
	unresolved catalog.Area
	lookup     geocode.Lookuper
	timeout    time.Duration
	logger     *slog.Logger
}

// NewResolver loads the postal index from the store. An empty index is a
// configuration error: resolution without any verified areas would send every
// record to the remote service, so it is caught at startup instead.
func NewResolver(ctx context.Context, store *catalog.Store, opts Options) (*Resolver, error) {
	index, err := store.PostalIndex(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "load postal index", err)
	}
	if len(index) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init",
			"postal index is empty; import areas before resolving", nil)
	}

	unresolved, err := store.EnsureArea(ctx, UnresolvedAreaName, 0)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "ensure unresolved area", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	resolver := &Resolver{
		index:      index,
		unresolved: *unresolved,
		lookup:     opts.Lookup,
		timeout:    timeout,
		logger:     logging.NewComponentLogger(logger, "resolver"),
	}
	resolver.logger.Debug("postal index loaded", logging.Int("codes", len(index)))
	return resolver, nil
}

// Unresolved returns the sentinel area used for resolution misses.
func (r *Resolver) Unresolved() catalog.Area {
	return r.unresolved
}

// Resolve maps a postal code to an administrative area. The local index is
// authoritative; on a miss one remote lookup runs under the configured
// timeout, and any remote miss settles on the Unresolved area with SourceNone.
func (r *Resolver) Resolve(ctx context.Context, postalCode string) (catalog.Area, Source, error) {
	code := normalize.CanonicalPostalCode(postalCode)
	if code == "" {
		return catalog.Area{}, SourceNone, services.Wrap(services.ErrValidation, "resolver", "resolve",
			"postal code must not be empty", nil)
	}

	if area, ok := r.index[code]; ok {
		return area, SourceLocal, nil
	}

	if r.lookup == nil {
		return r.unresolved, SourceNone, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.lookup.Lookup(lookupCtx, code)
	if err != nil {
		if isResolutionMiss(err) {
			r.logger.Debug("remote lookup missed",
				logging.String(logging.FieldPostalCode, code),
				logging.Error(err))
			return r.unresolved, SourceNone, nil
		}
		return catalog.Area{}, SourceNone, err
	}

	place, ok := resp.PrimaryPlace()
	if !ok {
		return r.unresolved, SourceNone, nil
	}

	r.logger.Debug("remote lookup resolved",
		logging.String(logging.FieldPostalCode, code),
		logging.String("place", place.Name))
	return catalog.Area{Name: place.Name}, SourceRemote, nil
}

// isResolutionMiss reports whether a lookup error means "no answer" rather
// than a fault the caller must see. Malformed payloads and validation errors
// propagate.
func isResolutionMiss(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, services.ErrTimeout) ||
		errors.Is(err, services.ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded)
}
