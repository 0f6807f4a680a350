package metrics

import (
	"context"

	"github.com/kilianp07/freshalloc/core/events"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/infra/logger"
	"github.com/kilianp07/freshalloc/internal/eventbus"
)

// Shipment is the quantity one allocation takes out of a warehouse.
type Shipment struct {
	RunID       string
	Strategy    model.Strategy
	WarehouseID string
	Kg          float64
}

// ShipmentRecorder is implemented by sinks tracking per-warehouse outflow.
type ShipmentRecorder interface {
	RecordShipment(s Shipment) error
}

// StartEventCollector subscribes to the event bus and forwards allocation
// events to rec. Run events are logged. It stops when the context is
// canceled or the bus is closed; the returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], rec ShipmentRecorder, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || rec == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.AllocationEvent:
					a := e.Allocation
					if err := rec.RecordShipment(Shipment{
						RunID:       e.RunID,
						Strategy:    a.Strategy,
						WarehouseID: a.SourceWarehouseID,
						Kg:          a.AllocatedKg,
					}); err != nil {
						log.Warnf("record shipment: %v", err)
					}
				case events.RunEvent:
					log.Debugw("run event", map[string]any{
						"run_id":   e.RunID,
						"strategy": string(e.Strategy),
						"phase":    e.Phase,
					})
				}
			}
		}
	}()
	return done
}
