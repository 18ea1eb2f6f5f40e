package quality

import (
	"fmt"
	"strconv"
	"strings"
)

// ChangeKind identifies the detector family that produced a proposal.
type ChangeKind string

const (
	KindMissingArea     ChangeKind = "missing_area"
	KindPhoneFormat     ChangeKind = "phone_format"
	KindURLFormat       ChangeKind = "url_format"
	KindEmailFormat     ChangeKind = "email_format"
	KindPriceFormat     ChangeKind = "price_format"
	KindStaleSubmission ChangeKind = "stale_submission"
)

var knownKinds = map[ChangeKind]struct{}{
	KindMissingArea:     {},
	KindPhoneFormat:     {},
	KindURLFormat:       {},
	KindEmailFormat:     {},
	KindPriceFormat:     {},
	KindStaleSubmission: {},
}

// ChangeID names one proposed change: a detector kind applied to one entity.
// Re-running analysis over the same snapshot yields the same ChangeID for the
// same finding, which is what makes apply and reject idempotent.
type ChangeID struct {
	Kind     ChangeKind
	EntityID int64
}

// String renders the "<kind>-<entityID>" form used for display and ledger
// storage.
func (id ChangeID) String() string {
	return fmt.Sprintf("%s-%d", id.Kind, id.EntityID)
}

// ParseChangeID parses the rendered form. Kinds never contain hyphens, so the
// split happens at the last one.
func ParseChangeID(value string) (ChangeID, error) {
	value = strings.TrimSpace(value)
	idx := strings.LastIndex(value, "-")
	if idx <= 0 || idx == len(value)-1 {
		return ChangeID{}, fmt.Errorf("malformed change id %q", value)
	}
	kind := ChangeKind(value[:idx])
	if _, ok := knownKinds[kind]; !ok {
		return ChangeID{}, fmt.Errorf("unknown change kind %q", kind)
	}
	entityID, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil || entityID <= 0 {
		return ChangeID{}, fmt.Errorf("malformed change id %q: bad entity id", value)
	}
	return ChangeID{Kind: kind, EntityID: entityID}, nil
}
