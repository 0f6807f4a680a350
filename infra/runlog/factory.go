package runlog

import "github.com/kilianp07/freshalloc/core/factory"

var registry = factory.NewRegistry[Store]()

func init() {
	registry.MustRegister("nop", func(map[string]any) (Store, error) { return NopStore{}, nil })
	registry.MustRegister("jsonl", func(conf map[string]any) (Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "runs.jsonl"
		}
		return NewJSONLStore(c.Path)
	})
	registry.MustRegister("rotating", func(conf map[string]any) (Store, error) {
		c := struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}{Path: "runs.jsonl", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	registry.MustRegister("sqlite", func(conf map[string]any) (Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "runs.db"
		}
		return NewSQLiteStore(c.Path)
	})
}

// Register adds a store factory identified by name.
func Register(name string, f factory.Factory[Store]) error {
	return registry.Register(name, f)
}

// New creates the store described by cfg. An empty type yields NopStore.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return registry.Create(cfg)
}

// Names lists the registered store types.
func Names() []string { return registry.Names() }
