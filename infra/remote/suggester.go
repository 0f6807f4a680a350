package remote

import (
	"context"

	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/transfer"
)

// Suggester calls the transfer-suggestion service.
type Suggester struct {
	c *client
}

// NewSuggester creates a transfer-suggestion client.
func NewSuggester(cfg Config) (*Suggester, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Suggester{c: c}, nil
}

type planRequest struct {
	Nodes   []model.Node    `json:"nodes"`
	Batches []model.Batch   `json:"batches"`
	Tuning  transfer.Tuning `json:"tuning"`
}

// PlanTransfers implements transfer.Suggester.
func (s *Suggester) PlanTransfers(ctx context.Context, nodes []model.Node, batches []model.Batch, t transfer.Tuning) ([]model.TransferSuggestion, error) {
	data, err := s.c.post(ctx, planRequest{Nodes: nodes, Batches: batches, Tuning: t})
	if err != nil {
		return nil, err
	}
	return decodeList[model.TransferSuggestion](data, "transfers")
}

func init() {
	transfer.MustRegister("http", func(conf map[string]any) (transfer.Suggester, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSuggester(c)
	})
}
