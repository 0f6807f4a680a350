package events

import (
	"time"

	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/transfer"
)

// Event is implemented by every event published by the engine.
type Event interface {
	Kind() string
}

// AllocationEvent is published for each allocation record.
type AllocationEvent struct {
	RunID      string
	Allocation model.Allocation
}

func (AllocationEvent) Kind() string { return "allocation" }

// TransferEvent is published after each transfer planning run.
type TransferEvent struct {
	RunID string
	Run   transfer.Run
}

func (TransferEvent) Kind() string { return "transfer" }

// Run phases.
const (
	PhaseStarted  = "started"
	PhaseFinished = "finished"
)

// RunEvent marks the start and end of one strategy run.
type RunEvent struct {
	RunID       string
	Strategy    model.Strategy
	Phase       string
	Requests    int
	Allocations int
	Err         error
	Time        time.Time
}

func (RunEvent) Kind() string { return "run" }
