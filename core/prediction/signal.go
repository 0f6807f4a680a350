package prediction

import (
	"context"

	"github.com/kilianp07/freshalloc/core/model"
)

// DemandSignal is the per-region output of a demand predictor.
type DemandSignal struct {
	State        string  `json:"state"`
	District     string  `json:"district"`
	AnomalyScore float64 `json:"anomalyScore"`
	IsAnomaly    bool    `json:"isAnomaly"`
}

// DemandPredictor forecasts anomalous demand from the current snapshot.
type DemandPredictor interface {
	Predict(ctx context.Context, nodes []model.Node, requests []model.Request, batches []model.Batch) ([]DemandSignal, error)
}

// None never reports a signal.
type None struct{}

// Predict implements DemandPredictor.
func (None) Predict(context.Context, []model.Node, []model.Request, []model.Batch) ([]DemandSignal, error) {
	return nil, nil
}

// Static returns a fixed set of signals, or Err when set.
type Static struct {
	Signals []DemandSignal
	Err     error
}

// Predict implements DemandPredictor.
func (s Static) Predict(context.Context, []model.Node, []model.Request, []model.Batch) ([]DemandSignal, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]DemandSignal, len(s.Signals))
	copy(out, s.Signals)
	return out, nil
}

// Regions indexes signals by region key.
type Regions map[string]DemandSignal

// Index builds a Regions lookup. Later signals for the same region win.
func Index(signals []DemandSignal) Regions {
	r := make(Regions, len(signals))
	for _, s := range signals {
		r[model.RegionKey(s.State, s.District)] = s
	}
	return r
}

// Anomalous reports whether the node's region is flagged.
func (r Regions) Anomalous(n model.Node) bool {
	if len(r) == 0 {
		return false
	}
	s, ok := r[n.RegionKey()]
	return ok && s.IsAnomaly
}

// Count returns the number of anomalous regions.
func (r Regions) Count() int {
	var n int
	for _, s := range r {
		if s.IsAnomaly {
			n++
		}
	}
	return n
}
