package transfer

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Decision is the outcome of Schedule.Tick.
type Decision int

const (
	// Idle means no boundary was crossed.
	Idle Decision = iota
	// Fire means a planning run is due.
	Fire
	// Capped means a boundary was crossed after MaxRuns was reached.
	Capped
)

// Schedule tracks simulated-time planning boundaries. The clock is the
// dispatch time of the requests being processed, which only moves forward.
type Schedule struct {
	every   cron.Schedule
	maxRuns int
	once    bool
	next    time.Time
	runs    int
	started bool
}

// NewSchedule returns the schedule for cfg. Without an interval the planner
// fires once, on the first tick.
func NewSchedule(cfg Config) *Schedule {
	s := &Schedule{maxRuns: cfg.MaxRuns, once: !cfg.Periodic()}
	if !s.once {
		s.every = cron.Every(time.Duration(cfg.IntervalHours * float64(time.Hour)))
	}
	if s.maxRuns <= 0 {
		s.maxRuns = 1
	}
	return s
}

// Tick advances the clock to at. Several boundaries crossed by one tick
// collapse into a single run.
func (s *Schedule) Tick(at time.Time) Decision {
	if !s.started {
		s.started = true
		if s.every != nil {
			s.next = s.every.Next(at)
		}
		return s.fire()
	}
	if s.once || at.Before(s.next) {
		return Idle
	}
	for !at.Before(s.next) {
		s.next = s.every.Next(s.next)
	}
	return s.fire()
}

func (s *Schedule) fire() Decision {
	if s.runs >= s.maxRuns {
		return Capped
	}
	s.runs++
	return Fire
}

// Runs returns how many runs fired.
func (s *Schedule) Runs() int { return s.runs }

// Next returns the next boundary, zero when the schedule is not periodic.
func (s *Schedule) Next() time.Time { return s.next }
