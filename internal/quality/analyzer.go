package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"relish/internal/catalog"
	"relish/internal/location"
	"relish/internal/logging"
	"relish/internal/services"
)

// Confidence carried by each detector family.
const (
	confidenceCanonical = 1.0
	confidenceInferred  = 0.9
	confidenceStale     = 0.8
)

// DefaultStalenessAge is how long a pending submission may sit untouched
// before archival is proposed.
const DefaultStalenessAge = 30 * 24 * time.Hour

// Proposal is one suggested field rewrite. Proposals are recomputed on every
// analysis run and become durable only as ledger entries once acted on.
type Proposal struct {
	ID            ChangeID
	Category      catalog.Category
	Field         string
	CurrentValue  string
	ProposedValue string
	Rationale     string
	Confidence    float64
}

// Diagnostic reports an entity a detector could not assess. Diagnostics are
// returned out of band and never abort a scan.
type Diagnostic struct {
	EntityID int64
	Detector ChangeKind
	Reason   string
}

// Options configures an Analyzer.
type Options struct {
	// StalenessAge overrides DefaultStalenessAge. Zero means the default.
	StalenessAge time.Duration
	Logger       *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Analyzer scans one catalog category for deviations from canonical form.
type Analyzer struct {
	store        *catalog.Store
	stalenessAge time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewAnalyzer builds an Analyzer over the given store.
func NewAnalyzer(store *catalog.Store, opts Options) *Analyzer {
	stalenessAge := opts.StalenessAge
	if stalenessAge <= 0 {
		stalenessAge = DefaultStalenessAge
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		store:        store,
		stalenessAge: stalenessAge,
		logger:       logging.NewComponentLogger(logger, "analyzer"),
		now:          now,
	}
}

// Analyze runs the category's detector set over every entity, ordered by
// entity ID then detector declaration order. Identical snapshots yield
// identical proposals in identical order. A detector failure on one entity
// becomes a Diagnostic; the scan continues.
func (a *Analyzer) Analyze(ctx context.Context, category catalog.Category) ([]Proposal, []Diagnostic, error) {
	parsed, ok := catalog.ParseCategory(string(category))
	if !ok {
		return nil, nil, services.Wrap(services.ErrValidation, "analyzer", "analyze",
			fmt.Sprintf("unsupported category %q", category), nil)
	}
	category = parsed

	entities, err := a.store.ListEntities(ctx, category)
	if err != nil {
		return nil, nil, fmt.Errorf("list entities: %w", err)
	}

	s := &scan{
		now:          a.now().UTC(),
		stalenessAge: a.stalenessAge,
	}
	if category == catalog.CategoryVenue {
		s.areaVotes = buildAreaVotes(entities)
	}

	detectors := detectorsFor(category)
	var proposals []Proposal
	var diagnostics []Diagnostic
	for _, entity := range entities {
		for _, det := range detectors {
			proposal, err := det.run(s, entity)
			if err != nil {
				diagnostics = append(diagnostics, Diagnostic{
					EntityID: entity.ID,
					Detector: det.kind,
					Reason:   err.Error(),
				})
				continue
			}
			if proposal != nil {
				proposals = append(proposals, *proposal)
			}
		}
	}

	a.logger.Debug("analysis complete",
		logging.String(logging.FieldCategory, string(category)),
		logging.Int("entities", len(entities)),
		logging.Int("proposals", len(proposals)),
		logging.Int("diagnostics", len(diagnostics)))
	return proposals, diagnostics, nil
}

// buildAreaVotes tallies populated area values per postal code. The
// Unresolved sentinel is skipped: propagating it would infer ignorance, not
// geography.
func buildAreaVotes(entities []*catalog.Entity) map[string]map[string]int {
	votes := make(map[string]map[string]int)
	for _, entity := range entities {
		area := entity.Field(catalog.FieldArea)
		code := entity.Field(catalog.FieldPostalCode)
		if area == "" || code == "" || area == location.UnresolvedAreaName {
			continue
		}
		if votes[code] == nil {
			votes[code] = make(map[string]int)
		}
		votes[code][area]++
	}
	return votes
}
