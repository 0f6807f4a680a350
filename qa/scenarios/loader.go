// Package scenarios runs QA scenario files through both allocation
// strategies and checks their expected outcomes.
package scenarios

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/pkg/scenario"
)

// Outcome lists the checks applied to one strategy result. Nil fields are
// not checked.
type Outcome struct {
	AllocatedKg    *float64 `yaml:"allocated_kg"`
	FulfillmentPct *float64 `yaml:"fulfillment_pct"`
	SpoiledKg      *float64 `yaml:"spoiled_kg"`
	Allocations    *int     `yaml:"allocations"`
	Sources        []string `yaml:"sources"`
}

// TransferOutcome lists the checks applied to the scored run's transfer trace.
type TransferOutcome struct {
	Applied *int     `yaml:"applied"`
	Skipped *int     `yaml:"skipped"`
	MovedKg *float64 `yaml:"moved_kg"`
}

type Expected struct {
	Baseline  Outcome         `yaml:"baseline"`
	Scored    Outcome         `yaml:"scored"`
	Transfers TransferOutcome `yaml:"transfers"`
}

type Case struct {
	Name        string
	Description string
	Input       *scenario.Scenario
	Engine      allocation.Config
	Suggester   string
	Expected    Expected
}

type header struct {
	Description string         `yaml:"description"`
	Engine      map[string]any `yaml:"engine"`
	Suggester   string         `yaml:"suggester"`
	Expected    Expected       `yaml:"expected"`
}

// Load reads a QA case: a scenario document extended with engine overrides
// and an expected block.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc, err := scenario.Decode(bytes.NewReader(data), "yaml")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c := &Case{Name: sc.Name, Description: h.Description, Input: sc, Suggester: h.Suggester, Expected: h.Expected}
	if c.Name == "" {
		c.Name = path
	}
	if err := factory.Decode(h.Engine, &c.Engine); err != nil {
		return nil, fmt.Errorf("%s: engine: %w", path, err)
	}
	return c, nil
}
