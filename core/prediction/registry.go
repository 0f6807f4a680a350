package prediction

import "github.com/kilianp07/freshalloc/core/factory"

var registry = factory.NewRegistry[DemandPredictor]()

func init() {
	registry.MustRegister("none", func(map[string]any) (DemandPredictor, error) { return None{}, nil })
	registry.MustRegister("static", func(conf map[string]any) (DemandPredictor, error) {
		var c struct {
			Signals []DemandSignal `json:"signals"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return Static{Signals: c.Signals}, nil
	})
}

// MustRegister is Register for init-time registration; it panics on a
// duplicate name.
func MustRegister(name string, f factory.Factory[DemandPredictor]) {
	registry.MustRegister(name, f)
}

// Register adds a predictor factory identified by name.
func Register(name string, f factory.Factory[DemandPredictor]) error {
	return registry.Register(name, f)
}

// New creates the predictor described by cfg. An empty type yields None.
func New(cfg factory.ModuleConfig) (DemandPredictor, error) {
	if cfg.Type == "" {
		return None{}, nil
	}
	return registry.Create(cfg)
}

// Names lists the registered predictor types.
func Names() []string { return registry.Names() }
