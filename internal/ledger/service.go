package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"relish/internal/catalog"
	"relish/internal/logging"
	"relish/internal/quality"
	"relish/internal/services"
)

// Disposition reports how one requested change was settled.
type Disposition string

const (
	DispositionApplied        Disposition = "applied"
	DispositionAlreadyApplied Disposition = "already_applied"
	DispositionSkipped        Disposition = "skipped"
	DispositionFailed         Disposition = "failed"
)

// Result itemizes the disposition of a single requested change identifier.
type Result struct {
	ChangeID    string      `json:"change_id"`
	Disposition Disposition `json:"disposition"`
	Detail      string      `json:"detail,omitempty"`
}

// Outcome summarizes one Apply call. Results appear in request order and
// already-applied no-ops count toward Applied.
type Outcome struct {
	Category catalog.Category `json:"category"`
	Applied  int              `json:"applied"`
	Skipped  int              `json:"skipped"`
	Failed   int              `json:"failed"`
	Results  []Result         `json:"results"`
}

// Analyzer supplies the current proposal set for one category. The quality
// analyzer satisfies this.
type Analyzer interface {
	Analyze(ctx context.Context, category catalog.Category) ([]quality.Proposal, []quality.Diagnostic, error)
}

// Service settles cleanup proposals against the catalog and its ledger.
type Service struct {
	store    *catalog.Store
	analyzer Analyzer
	logger   *slog.Logger
}

// NewService builds a Service over the store and analyzer.
func NewService(store *catalog.Store, analyzer Analyzer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		logger:   logging.NewComponentLogger(logger, "ledger"),
	}
}

// Apply settles the requested changes. Proposals are re-derived from the
// current snapshot and requested identifiers outside that set are skipped, so
// clients holding a stale analysis cannot write stale values. An identifier
// that already has an applied entry is a no-op that still reports success. A
// persistence failure on one change records a failed entry and moves on; the
// other changes in the call are unaffected.
func (s *Service) Apply(ctx context.Context, category catalog.Category, ids []quality.ChangeID) (Outcome, error) {
	byID, err := s.currentProposals(ctx, category, ids, "apply")
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Category: category, Results: make([]Result, 0, len(ids))}
	for _, id := range ids {
		changeID := id.String()
		settled, err := s.store.HasEntry(ctx, changeID, catalog.ActionApplied)
		if err != nil {
			return Outcome{}, fmt.Errorf("check ledger for %s: %w", changeID, err)
		}
		if settled {
			outcome.Applied++
			outcome.Results = append(outcome.Results, Result{ChangeID: changeID, Disposition: DispositionAlreadyApplied})
			continue
		}

		proposal, ok := byID[id]
		if !ok {
			outcome.Skipped++
			outcome.Results = append(outcome.Results, Result{
				ChangeID:    changeID,
				Disposition: DispositionSkipped,
				Detail:      "not in the current proposal set",
			})
			continue
		}

		applied, err := s.store.ApplyFieldChange(ctx, snapshot(proposal))
		if err != nil {
			detail := err.Error()
			if recordErr := s.store.RecordFailure(ctx, snapshot(proposal), detail); recordErr != nil {
				s.logger.Error("record failure entry",
					logging.String(logging.FieldChangeID, changeID),
					logging.Error(recordErr))
			}
			outcome.Failed++
			outcome.Results = append(outcome.Results, Result{ChangeID: changeID, Disposition: DispositionFailed, Detail: detail})
			continue
		}
		outcome.Applied++
		if !applied {
			outcome.Results = append(outcome.Results, Result{ChangeID: changeID, Disposition: DispositionAlreadyApplied})
			continue
		}
		s.logger.Debug("change applied",
			logging.String(logging.FieldChangeID, changeID),
			logging.Int64(logging.FieldEntityID, proposal.ID.EntityID),
			logging.String("field", proposal.Field))
		outcome.Results = append(outcome.Results, Result{ChangeID: changeID, Disposition: DispositionApplied})
	}

	s.logger.Info("cleanup changes settled",
		logging.String(logging.FieldCategory, string(category)),
		logging.Int("applied", outcome.Applied),
		logging.Int("skipped", outcome.Skipped),
		logging.Int("failed", outcome.Failed))
	return outcome, nil
}

// Reject records that the requested changes were reviewed and declined. The
// entities are never touched, and the same proposals resurface on the next
// analysis run. Identifiers outside the current proposal set are ignored;
// re-rejecting a settled identifier reports success without appending a
// duplicate entry. Returns the number of acknowledged rejections.
func (s *Service) Reject(ctx context.Context, category catalog.Category, ids []quality.ChangeID) (int, error) {
	byID, err := s.currentProposals(ctx, category, ids, "reject")
	if err != nil {
		return 0, err
	}

	rejected := 0
	for _, id := range ids {
		changeID := id.String()
		settled, err := s.store.HasEntry(ctx, changeID, catalog.ActionRejected)
		if err != nil {
			return rejected, fmt.Errorf("check ledger for %s: %w", changeID, err)
		}
		if settled {
			rejected++
			continue
		}
		proposal, ok := byID[id]
		if !ok {
			continue
		}
		if err := s.store.RecordRejection(ctx, snapshot(proposal)); err != nil {
			return rejected, fmt.Errorf("record rejection for %s: %w", changeID, err)
		}
		rejected++
	}

	s.logger.Info("cleanup changes rejected",
		logging.String(logging.FieldCategory, string(category)),
		logging.Int("rejected", rejected))
	return rejected, nil
}

func (s *Service) currentProposals(ctx context.Context, category catalog.Category, ids []quality.ChangeID, operation string) (map[quality.ChangeID]quality.Proposal, error) {
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ledger", operation, "no change ids provided", nil)
	}
	proposals, _, err := s.analyzer.Analyze(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("derive current proposals: %w", err)
	}
	byID := make(map[quality.ChangeID]quality.Proposal, len(proposals))
	for _, proposal := range proposals {
		byID[proposal.ID] = proposal
	}
	return byID, nil
}

// snapshot converts a proposal into the change snapshot the store persists.
func snapshot(p quality.Proposal) catalog.FieldChange {
	return catalog.FieldChange{
		ChangeID:   p.ID.String(),
		EntityID:   p.ID.EntityID,
		Category:   p.Category,
		Field:      p.Field,
		OldValue:   p.CurrentValue,
		NewValue:   p.ProposedValue,
		Rationale:  p.Rationale,
		Confidence: p.Confidence,
	}
}
