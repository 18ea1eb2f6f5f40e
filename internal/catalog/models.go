package catalog

import (
	"strings"
	"time"
)

// Category identifies the kind of record an entity holds.
type Category string

const (
	CategoryVenue      Category = "venue"
	CategoryMenuItem   Category = "menu_item"
	CategoryUser       Category = "user"
	CategorySubmission Category = "submission"
)

var allCategories = []Category{
	CategoryVenue,
	CategoryMenuItem,
	CategoryUser,
	CategorySubmission,
}

var categorySet = func() map[Category]struct{} {
	set := make(map[Category]struct{}, len(allCategories))
	for _, category := range allCategories {
		set[category] = struct{}{}
	}
	return set
}()

// Well-known entity field keys.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldWebsite    = "website"
	FieldEmail      = "email"
	FieldArea       = "area"
	FieldPrice      = "price"
	FieldStatus     = "status"
	FieldPostalCode = "postal_code"
)

// Submission status field values recognized by the cleanup analyzer.
const (
	SubmissionPending  = "pending"
	SubmissionArchived = "archived"
)

// AllCategories returns the ordered list of known categories.
func AllCategories() []Category {
	cp := make([]Category, len(allCategories))
	copy(cp, allCategories)
	return cp
}

// ParseCategory converts a string into a known Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := categorySet[normalized]
	return normalized, ok
}

// Entity represents a catalog record persisted in SQLite. Attributes live in
// the Fields map keyed by the Field* constants.
type Entity struct {
	ID        int64
	Category  Category
	Fields    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Field returns the named field value, or the empty string when unset.
func (e *Entity) Field(key string) string {
	if e == nil || e.Fields == nil {
		return ""
	}
	return e.Fields[key]
}

// SetField stores a field value, allocating the map on first use.
func (e *Entity) SetField(key, value string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = value
}

// Clone returns a deep copy so callers can mutate fields without aliasing
// the original map.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Fields != nil {
		cp.Fields = make(map[string]string, len(e.Fields))
		for key, value := range e.Fields {
			cp.Fields[key] = value
		}
	}
	return &cp
}

// Area is a named service area covering a set of postal codes.
type Area struct {
	ID          int64
	Name        string
	RegionID    int64
	PostalCodes []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CoversPostalCode reports whether the area claims the given postal code.
func (a *Area) CoversPostalCode(code string) bool {
	if a == nil {
		return false
	}
	for _, candidate := range a.PostalCodes {
		if candidate == code {
			return true
		}
	}
	return false
}

// Action records how a proposed cleanup change was settled.
type Action string

const (
	ActionApplied  Action = "applied"
	ActionRejected Action = "rejected"
	ActionFailed   Action = "failed"
)

var allActions = []Action{ActionApplied, ActionRejected, ActionFailed}

var actionSet = func() map[Action]struct{} {
	set := make(map[Action]struct{}, len(allActions))
	for _, action := range allActions {
		set[action] = struct{}{}
	}
	return set
}()

// ParseAction converts a string into a known Action.
func ParseAction(value string) (Action, bool) {
	normalized := Action(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := actionSet[normalized]
	return normalized, ok
}

// FieldChange is the snapshot of one proposed field rewrite that the ledger
// preserves when the change is settled.
type FieldChange struct {
	ChangeID   string
	EntityID   int64
	Category   Category
	Field      string
	OldValue   string
	NewValue   string
	Rationale  string
	Confidence float64
}

// LedgerEntry is an immutable record of a settled cleanup change. Note holds
// the proposal rationale for applied and rejected entries and the failure
// reason for failed ones.
type LedgerEntry struct {
	ID         string
	ChangeID   string
	EntityID   int64
	Category   Category
	Action     Action
	Field      string
	OldValue   string
	NewValue   string
	Confidence float64
	Note       string
	CreatedAt  time.Time
}

// HealthSummary describes aggregated catalog counts for diagnostic output.
type HealthSummary struct {
	Areas       int
	Entities    int
	ByCategory  map[Category]int
	LedgerTotal int
	ByAction    map[Action]int
}
