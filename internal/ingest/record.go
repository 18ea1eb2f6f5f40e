package ingest

import (
	"relish/internal/location"
	"relish/internal/match"
)

// Status tracks where a record sits in the pipeline. Transitions are
// monotonic: a record leaves unprocessed exactly once and never returns.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusResolved    Status = "resolved"
	StatusDuplicate   Status = "duplicate"
	StatusError       Status = "error"
)

// Record is one unit of bulk work: the raw operator-supplied fields plus the
// resolution results attached during processing. Records live only for the
// duration of a batch and are never persisted.
type Record struct {
	Line     int      `json:"line"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Location string   `json:"location,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	Status          Status          `json:"status"`
	AreaName        string          `json:"area,omitempty"`
	Source          location.Source `json:"source,omitempty"`
	MatchKind       match.Kind      `json:"match,omitempty"`
	MatchedEntityID int64           `json:"matched_entity_id,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Summary aggregates the settled dispositions of one batch.
type Summary struct {
	Resolved    int `json:"resolved"`
	Duplicates  int `json:"duplicates"`
	Errors      int `json:"errors"`
	Unprocessed int `json:"unprocessed,omitempty"`
}

// Summarize tallies the status of every record in the batch.
func Summarize(records []Record) Summary {
	var summary Summary
	for i := range records {
		switch records[i].Status {
		case StatusResolved:
			summary.Resolved++
		case StatusDuplicate:
			summary.Duplicates++
		case StatusError:
			summary.Errors++
		default:
			summary.Unprocessed++
		}
	}
	return summary
}

// settle moves the record to a terminal status. The first settlement wins.
func (r *Record) settle(status Status) {
	if r.Status != StatusUnprocessed {
		return
	}
	r.Status = status
}

// fail settles the record with an error message.
func (r *Record) fail(reason string) {
	if r.Status != StatusUnprocessed {
		return
	}
	r.Error = reason
	r.Status = StatusError
}
