// Package scenario loads allocation inputs (nodes, batches and requests)
// from YAML or JSON documents.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/model"
)

// Scenario is one set of engine inputs.
type Scenario struct {
	Name     string
	Now      time.Time
	Nodes    []model.Node
	Batches  []model.Batch
	Requests []model.Request
	// Warnings lists nodes whose coordinates could not be extracted. Those
	// nodes are kept with a nil location.
	Warnings []string
}

type document struct {
	Name     string           `json:"name" yaml:"name"`
	Now      string           `json:"now" yaml:"now"`
	Nodes    []map[string]any `json:"nodes" yaml:"nodes"`
	Batches  []map[string]any `json:"batches" yaml:"batches"`
	Requests []map[string]any `json:"requests" yaml:"requests"`
}

// Load reads a scenario from a .yaml, .yml or .json file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	sc, err := Decode(f, ext)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Decode reads a scenario from r in the given format ("yaml", "yml" or "json").
func Decode(r io.Reader, format string) (*Scenario, error) {
	var doc document
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return build(doc)
}

func build(doc document) (*Scenario, error) {
	sc := &Scenario{Name: doc.Name}
	if doc.Now != "" {
		now, err := time.Parse(time.RFC3339, doc.Now)
		if err != nil {
			return nil, fmt.Errorf("now: %w", err)
		}
		sc.Now = now
	}

	for i, rec := range doc.Nodes {
		n, warn, err := decodeNode(normalize(rec))
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		if warn != "" {
			sc.Warnings = append(sc.Warnings, warn)
		}
		sc.Nodes = append(sc.Nodes, n)
	}
	for i, rec := range doc.Batches {
		var b model.Batch
		if err := factory.Decode(normalize(rec), &b); err != nil {
			return nil, fmt.Errorf("batches[%d]: %w", i, err)
		}
		if b.OriginalQuantityKg == 0 {
			b.OriginalQuantityKg = b.QuantityKg
		}
		if b.Status == "" {
			b.Status = model.StatusStored
		}
		if b.OriginNode == "" {
			b.OriginNode = b.CurrentNode
		}
		sc.Batches = append(sc.Batches, b)
	}
	for i, rec := range doc.Requests {
		var r model.Request
		if err := factory.Decode(normalize(rec), &r); err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		sc.Requests = append(sc.Requests, r)
	}
	return sc, nil
}

// decodeNode decodes the scalar fields with mapstructure and resolves the
// location from whichever coordinate encoding the record uses.
func decodeNode(rec map[string]any) (model.Node, string, error) {
	fields := make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case "location", "centroid", "lat", "lon", "lng", "latitude", "longitude":
		default:
			fields[k] = v
		}
	}
	var n model.Node
	if err := factory.Decode(fields, &n); err != nil {
		return n, "", err
	}
	if err := n.Validate(); err != nil {
		return n, "", err
	}
	p, err := geo.ExtractCoordinates(rec)
	if err != nil {
		return n, fmt.Sprintf("node %s: %v", n.ID, err), nil
	}
	n.Location = &p
	return n, "", nil
}

// normalize converts YAML timestamps to RFC 3339 strings so the decode hook
// sees one representation.
func normalize(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case map[string]any:
		return normalize(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
