package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"relish/internal/catalog"
	"relish/internal/logging"
	"relish/internal/normalize"
	"relish/internal/services"
)

// Kind classifies how strongly a candidate matched an existing entity.
type Kind string

const (
	MatchExact Kind = "exact"
	MatchFuzzy Kind = "fuzzy"
	MatchNone  Kind = "none"
)

// DefaultFuzzyThreshold is the token-overlap similarity at or above which a
// candidate counts as a fuzzy duplicate.
const DefaultFuzzyThreshold = 0.6

// Candidate describes the record being checked against the catalog. AreaID
// selects a stored area; AreaName is consulted when AreaID is zero, since
// remotely resolved areas are not persisted.
type Candidate struct {
	Name     string
	Category catalog.Category
	AreaID   int64
	AreaName string
}

// Result reports the outcome of a duplicate check. Entity is nil for a none
// match, and Similarity is 0 for none regardless of any sub-threshold overlap.
type Result struct {
	Candidate  Candidate
	Entity     *catalog.Entity
	Kind       Kind
	Similarity float64
}

// Options configures a Matcher.
type Options struct {
	// Threshold overrides DefaultFuzzyThreshold. Values outside (0, 1]
	// fall back to the default.
	Threshold float64
	Logger    *slog.Logger
}

// Matcher performs duplicate checks over the catalog snapshot.
type Matcher struct {
	store     *catalog.Store
	threshold float64
	logger    *slog.Logger
}

// NewMatcher builds a Matcher over the given store.
func NewMatcher(store *catalog.Store, opts Options) *Matcher {
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{
		store:     store,
		threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "matcher"),
	}
}

// FindMatch compares the candidate against entities of the same category and
// area. Ties at equal similarity prefer the most recently modified entity.
func (m *Matcher) FindMatch(ctx context.Context, candidate Candidate) (Result, error) {
	name := strings.TrimSpace(candidate.Name)
	if name == "" {
		return Result{}, services.Wrap(services.ErrValidation, "matcher", "find_match",
			"candidate name must not be empty", nil)
	}
	if _, ok := catalog.ParseCategory(string(candidate.Category)); !ok {
		return Result{}, services.Wrap(services.ErrValidation, "matcher", "find_match",
			fmt.Sprintf("unsupported category %q", candidate.Category), nil)
	}

	areaName := strings.TrimSpace(candidate.AreaName)
	if candidate.AreaID > 0 {
		area, err := m.store.GetAreaByID(ctx, candidate.AreaID)
		if err != nil {
			return Result{}, fmt.Errorf("load area: %w", err)
		}
		if area == nil {
			return Result{}, services.Wrap(services.ErrNotFound, "matcher", "find_match",
				fmt.Sprintf("area %d not found", candidate.AreaID), nil)
		}
		areaName = area.Name
	}

	entities, err := m.store.ListEntities(ctx, candidate.Category)
	if err != nil {
		return Result{}, fmt.Errorf("list entities: %w", err)
	}

	canonical := normalize.CanonicalName(name)
	tokens := normalize.Tokens(name)

	result := Result{Candidate: candidate, Kind: MatchNone}
	for _, entity := range entities {
		if entity.Field(catalog.FieldArea) != areaName {
			continue
		}
		entityName := entity.Field(catalog.FieldName)
		entityCanonical := normalize.CanonicalName(entityName)
		if entityCanonical == "" {
			continue
		}

		kind := MatchNone
		score := 0.0
		if entityCanonical == canonical {
			kind = MatchExact
			score = 1.0
		} else if overlap := normalize.Jaccard(tokens, normalize.Tokens(entityName)); overlap >= m.threshold {
			kind = MatchFuzzy
			score = overlap
		} else {
			continue
		}

		if !betterMatch(kind, score, entity, result) {
			continue
		}
		result.Entity = entity
		result.Kind = kind
		result.Similarity = score
	}

	if result.Entity != nil {
		m.logger.Debug("duplicate candidate matched",
			logging.String("name", name),
			logging.String(logging.FieldCategory, string(candidate.Category)),
			logging.Int64(logging.FieldEntityID, result.Entity.ID),
			logging.String("kind", string(result.Kind)),
			logging.Float64("similarity", result.Similarity))
	}
	return result, nil
}

func kindRank(kind Kind) int {
	switch kind {
	case MatchExact:
		return 2
	case MatchFuzzy:
		return 1
	default:
		return 0
	}
}

func betterMatch(kind Kind, score float64, entity *catalog.Entity, current Result) bool {
	if kindRank(kind) != kindRank(current.Kind) {
		return kindRank(kind) > kindRank(current.Kind)
	}
	if score != current.Similarity {
		return score > current.Similarity
	}
	if current.Entity == nil {
		return true
	}
	return entity.UpdatedAt.After(current.Entity.UpdatedAt)
}
