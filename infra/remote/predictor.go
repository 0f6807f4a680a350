package remote

import (
	"context"

	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/prediction"
)

// Predictor calls the demand-signal service.
type Predictor struct {
	c *client
}

// NewPredictor creates a demand-signal client.
func NewPredictor(cfg Config) (*Predictor, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Predictor{c: c}, nil
}

type predictRequest struct {
	Nodes    []model.Node    `json:"nodes"`
	Requests []model.Request `json:"requests"`
	Batches  []model.Batch   `json:"batches"`
}

// Predict implements prediction.DemandPredictor.
func (p *Predictor) Predict(ctx context.Context, nodes []model.Node, requests []model.Request, batches []model.Batch) ([]prediction.DemandSignal, error) {
	data, err := p.c.post(ctx, predictRequest{Nodes: nodes, Requests: requests, Batches: batches})
	if err != nil {
		return nil, err
	}
	return decodeList[prediction.DemandSignal](data, "signals")
}

func init() {
	prediction.MustRegister("http", func(conf map[string]any) (prediction.DemandPredictor, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPredictor(c)
	})
}
