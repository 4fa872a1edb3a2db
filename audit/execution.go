package audit

import "time"

const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
)

// Unknown marks a derived field that has not been resolved yet, or whose
// value could not be recovered from the execution payloads.
const Unknown = "unknown"

// Execution is the normalized view of one workflow run. Derived fields start
// at Unknown and are filled in by the enrichment steps.
type Execution struct {
	Name      string
	Ref       string
	Status    string
	StartedAt time.Time
	StoppedAt time.Time

	Parent     string
	Collection string
	Provider   string
	GranuleID  string

	// FailureReason carries the first per-record enrichment failure so the
	// report can distinguish "not applicable" from "resolution failed".
	FailureReason string

	desc *Description
}

// NewExecution builds a record from a listing entry. Executions that have
// not stopped yet report their start time as stop time, so the duration of a
// running execution is zero.
func NewExecution(item ListedExecution) *Execution {
	stoppedAt := item.StopDate
	if item.Status == StatusRunning || stoppedAt.IsZero() {
		stoppedAt = item.StartDate
	}

	return &Execution{
		Name:       item.Name,
		Ref:        item.Ref,
		Status:     item.Status,
		StartedAt:  item.StartDate,
		StoppedAt:  stoppedAt,
		Parent:     Unknown,
		Collection: Unknown,
		Provider:   Unknown,
		GranuleID:  Unknown,
		desc:       nil,
	}
}

// NewExecutionFromDescription builds a record straight from a describe
// payload. Used for discovery runs that spawned children but were no longer
// part of the listing window and have to be synthesized after the fact.
func NewExecutionFromDescription(desc *Description) *Execution {
	e := NewExecution(ListedExecution{
		Name:      desc.Name,
		Ref:       desc.Ref,
		Status:    desc.Status,
		StartDate: desc.StartDate,
		StopDate:  desc.StopDate,
	})
	e.desc = desc
	return e
}

// SetDescription attaches the raw describe payload the enrichment steps
// parse. The payload is transient and never serialized.
func (e *Execution) SetDescription(desc *Description) {
	e.desc = desc
}

func (e *Execution) Running() bool {
	return e.Status == StatusRunning
}

// Duration returns how long the execution ran, zero while it is still
// running.
func (e *Execution) Duration() time.Duration {
	return e.StoppedAt.Sub(e.StartedAt)
}

// Info is the fixed-shape snapshot of a record used for both JSON
// persistence and reporting. The queued-granule count is kept as a string so
// recovered tallies and the sentinel markers share one field.
type Info struct {
	Status              string `json:"status"`
	Start               string `json:"start"`
	Duration            string `json:"duration"`
	Parent              string `json:"parent"`
	Collection          string `json:"collection"`
	Provider            string `json:"provider"`
	GranuleID           string `json:"granuleId"`
	QueuedGranulesCount string `json:"queued_granules_count,omitempty"`
	Fail                string `json:"fail,omitempty"`
}

// Info snapshots the record's current field values.
func (e *Execution) Info() *Info {
	return &Info{
		Status:     e.Status,
		Start:      e.StartedAt.Format(time.RFC3339),
		Duration:   e.Duration().String(),
		Parent:     e.Parent,
		Collection: e.Collection,
		Provider:   e.Provider,
		GranuleID:  e.GranuleID,
		Fail:       e.FailureReason,
	}
}
