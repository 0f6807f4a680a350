package transfer

import "time"

// Run statuses.
const (
	StatusApplied       = "applied"
	StatusNoImbalance   = "no_imbalance"
	StatusPlannerError  = "planner_error"
	StatusNoSuggestions = "no_suggestions"
	StatusMaxRuns       = "max_runs"
)

// Run is the record of one planning attempt.
type Run struct {
	Index     int       `json:"index"`
	At        time.Time `json:"at"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Stats     Stats     `json:"stats"`
	Transfers []Applied `json:"transfers,omitempty"`
	MovedKg   float64   `json:"moved_kg"`
}

// Trace collects every planning attempt of one allocation run.
type Trace struct {
	Attempted int   `json:"attempted"`
	Skipped   int   `json:"skipped"`
	Applied   int   `json:"applied"`
	Runs      []Run `json:"runs,omitempty"`
}

// Add appends r and updates the counters. Runs that moved stock count as
// applied; balanced or failed runs count as skipped.
func (t *Trace) Add(r Run) {
	r.Index = len(t.Runs)
	t.Runs = append(t.Runs, r)
	if r.Status == StatusMaxRuns {
		t.Skipped++
		return
	}
	t.Attempted++
	if r.Status == StatusApplied {
		t.Applied++
	} else {
		t.Skipped++
	}
}
