package quality

import (
	"fmt"
	"sort"
	"time"

	"relish/internal/catalog"
	"relish/internal/normalize"
)

// scan carries per-run state shared by every detector invocation.
type scan struct {
	// areaVotes maps postal code to area name to vote count. Built only
	// for venue scans.
	areaVotes    map[string]map[string]int
	now          time.Time
	stalenessAge time.Duration
}

// detector pairs a change kind with its check. Detector order within a
// category is part of the output contract.
type detector struct {
	kind ChangeKind
	run  func(s *scan, entity *catalog.Entity) (*Proposal, error)
}

var (
	venueDetectors = []detector{
		{kind: KindMissingArea, run: detectMissingArea},
		{kind: KindPhoneFormat, run: detectPhoneFormat},
		{kind: KindURLFormat, run: detectURLFormat},
	}
	menuItemDetectors = []detector{
		{kind: KindPriceFormat, run: detectPriceFormat},
	}
	userDetectors = []detector{
		{kind: KindEmailFormat, run: detectEmailFormat},
	}
	submissionDetectors = []detector{
		{kind: KindStaleSubmission, run: detectStaleSubmission},
	}
)

func detectorsFor(category catalog.Category) []detector {
	switch category {
	case catalog.CategoryVenue:
		return venueDetectors
	case catalog.CategoryMenuItem:
		return menuItemDetectors
	case catalog.CategoryUser:
		return userDetectors
	case catalog.CategorySubmission:
		return submissionDetectors
	default:
		return nil
	}
}

// detectMissingArea proposes an area for venues that carry a postal code but
// no area, using the majority vote of venues sharing that code.
func detectMissingArea(s *scan, entity *catalog.Entity) (*Proposal, error) {
	if entity.Field(catalog.FieldArea) != "" {
		return nil, nil
	}
	code := entity.Field(catalog.FieldPostalCode)
	if code == "" {
		return nil, nil
	}
	winner, count := majorityValue(s.areaVotes[code])
	if winner == "" {
		return nil, nil
	}
	return &Proposal{
		ID:            ChangeID{Kind: KindMissingArea, EntityID: entity.ID},
		Category:      entity.Category,
		Field:         catalog.FieldArea,
		CurrentValue:  "",
		ProposedValue: winner,
		Rationale:     fmt.Sprintf("%d of the venues sharing postal code %s are in %q", count, code, winner),
		Confidence:    confidenceInferred,
	}, nil
}

func detectPhoneFormat(s *scan, entity *catalog.Entity) (*Proposal, error) {
	return canonicalProposal(entity, KindPhoneFormat, catalog.FieldPhone, normalize.FormatPhone)
}

func detectURLFormat(s *scan, entity *catalog.Entity) (*Proposal, error) {
	return canonicalProposal(entity, KindURLFormat, catalog.FieldWebsite, normalize.FormatURL)
}

func detectEmailFormat(s *scan, entity *catalog.Entity) (*Proposal, error) {
	return canonicalProposal(entity, KindEmailFormat, catalog.FieldEmail, normalize.FormatEmail)
}

func detectPriceFormat(s *scan, entity *catalog.Entity) (*Proposal, error) {
	return canonicalProposal(entity, KindPriceFormat, catalog.FieldPrice, normalize.FormatPrice)
}

// detectStaleSubmission proposes archival for submissions pending longer than
// the staleness age.
func detectStaleSubmission(s *scan, entity *catalog.Entity) (*Proposal, error) {
	if entity.Field(catalog.FieldStatus) != catalog.SubmissionPending {
		return nil, nil
	}
	idle := s.now.Sub(entity.UpdatedAt.UTC())
	if idle <= s.stalenessAge {
		return nil, nil
	}
	days := int(idle.Hours() / 24)
	return &Proposal{
		ID:            ChangeID{Kind: KindStaleSubmission, EntityID: entity.ID},
		Category:      entity.Category,
		Field:         catalog.FieldStatus,
		CurrentValue:  catalog.SubmissionPending,
		ProposedValue: catalog.SubmissionArchived,
		Rationale:     fmt.Sprintf("pending for %d days without activity", days),
		Confidence:    confidenceStale,
	}, nil
}

// canonicalProposal compares a field against its canonical form. Empty fields
// are skipped, unparseable values surface as errors so the caller can record
// a diagnostic, and already-canonical values produce nothing.
func canonicalProposal(entity *catalog.Entity, kind ChangeKind, field string, format func(string) (string, error)) (*Proposal, error) {
	current := entity.Field(field)
	if current == "" {
		return nil, nil
	}
	canonical, err := format(current)
	if err != nil {
		return nil, err
	}
	if canonical == current {
		return nil, nil
	}
	return &Proposal{
		ID:            ChangeID{Kind: kind, EntityID: entity.ID},
		Category:      entity.Category,
		Field:         field,
		CurrentValue:  current,
		ProposedValue: canonical,
		Rationale:     fmt.Sprintf("%s %q is not in canonical form", field, current),
		Confidence:    confidenceCanonical,
	}, nil
}

// majorityValue returns the value with the strictly highest vote count. Ties
// keep the lexicographically smallest value, which the sorted iteration
// guarantees.
func majorityValue(votes map[string]int) (string, int) {
	if len(votes) == 0 {
		return "", 0
	}
	keys := make([]string, 0, len(votes))
	for key := range votes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	winner := ""
	best := 0
	for _, key := range keys {
		if votes[key] > best {
			winner = key
			best = votes[key]
		}
	}
	return winner, best
}
