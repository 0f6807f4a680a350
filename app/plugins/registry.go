// Package plugins links the infrastructure-backed module implementations
// into the binary and lists what each registry offers.
package plugins

import (
	"sort"

	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/prediction"
	"github.com/kilianp07/freshalloc/core/transfer"
	"github.com/kilianp07/freshalloc/infra/runlog"

	// registered through init
	_ "github.com/kilianp07/freshalloc/infra/metrics"
	_ "github.com/kilianp07/freshalloc/infra/remote"
)

// Kinds of pluggable modules selectable by type name in the configuration.
const (
	KindPredictor = "predictor"
	KindSuggester = "suggester"
	KindSink      = "metrics_sink"
	KindRunLog    = "run_log"
)

// Catalog returns the registered type names per module kind.
func Catalog() map[string][]string {
	return map[string][]string{
		KindPredictor: prediction.Names(),
		KindSuggester: transfer.SuggesterNames(),
		KindSink:      coremetrics.SinkNames(),
		KindRunLog:    runlog.Names(),
	}
}

// Kinds returns the catalog keys in lexical order.
func Kinds() []string {
	out := make([]string, 0, 4)
	for k := range Catalog() {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
