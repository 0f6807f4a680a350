package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/freshalloc/core/model"
)

// RunRecord describes one completed strategy run.
type RunRecord struct {
	RunID        string
	Strategy     model.Strategy
	Time         time.Time
	Duration     time.Duration
	Summary      Summary
	SkippedLines int
	SignalError  string
}

// MetricsSink records completed runs for observability purposes.
type MetricsSink interface {
	RecordRun(r RunRecord) error
}

// TransferRecord describes one transfer planning run.
type TransferRecord struct {
	RunID    string
	Strategy model.Strategy
	Status   string
	MovedKg  float64
	Time     time.Time
}

// TransferRecorder is implemented by sinks able to record transfer runs.
type TransferRecorder interface {
	RecordTransferRun(r TransferRecord) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error              { return nil }
func (NopSink) RecordTransferRun(TransferRecord) error { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordRun(r RunRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTransferRun forwards to the sinks that support transfer records.
func (m *MultiSink) RecordTransferRun(r TransferRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TransferRecorder); ok {
			if err := rec.RecordTransferRun(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		CloseSink(s)
	}
}

// CloseSink closes s when it exposes a Close method.
func CloseSink(s MetricsSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
