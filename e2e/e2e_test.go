//go:build e2e

package e2e

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/transfer"
	"github.com/kilianp07/freshalloc/infra/logger"
	"github.com/kilianp07/freshalloc/infra/metrics"
)

const (
	org    = "e2e_org"
	bucket = "e2e_bucket"
	token  = "e2e-token"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an InfluxDB 2.7 container initialised with the test
// org, bucket and admin token, and returns it along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         org,
			"DOCKER_INFLUXDB_INIT_BUCKET":      bucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": token,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestE2E_InfluxRunSummaries(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cont, url := startInflux(ctx, t)
	defer cont.Terminate(ctx) //nolint:errcheck
	t.Logf("InfluxDB started at %s", url)

	sink := metrics.NewInfluxSinkWithFallback(url, token, org, bucket)
	require.IsType(t, &metrics.InfluxSink{}, sink, "health check failed")
	defer sink.(*metrics.InfluxSink).Close()

	cfg := allocation.Config{Transfer: transfer.Config{Enabled: true}}
	engine, err := allocation.NewEngine(cfg,
		allocation.WithLogger(logger.New("e2e")),
		allocation.WithMetricsSink(sink),
		allocation.WithSuggester(transfer.Greedy{}),
	)
	require.NoError(t, err)

	now := time.Now().UTC()
	nodes := []model.Node{
		{ID: "ngo", Kind: model.NodeDemand, Location: &geo.Point{Lat: 19.0, Lon: 73.0}},
		{ID: "A", Kind: model.NodeWarehouse, CapacityKg: 500, Location: &geo.Point{Lat: 19.05, Lon: 73.05}},
		{ID: "B", Kind: model.NodeWarehouse, CapacityKg: 500, Location: &geo.Point{Lat: 19.5, Lon: 73.5}},
	}
	batches := []model.Batch{
		{ID: "b1", FoodType: "rice", QuantityKg: 450, OriginalQuantityKg: 450, CurrentNode: "A", Status: model.StatusStored},
		{ID: "b2", FoodType: "rice", QuantityKg: 50, OriginalQuantityKg: 50, CurrentNode: "B", Status: model.StatusStored},
	}
	requests := []model.Request{
		{ID: "r1", NodeID: "ngo", CreatedAt: now, Items: []model.LineItem{{FoodType: "rice", RequiredKg: 100}}},
	}
	cmp, err := engine.Compare(ctx, requests, batches, nodes)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cmp.Scored.Summary.FulfillmentPct)
	require.NotEmpty(t, cmp.Scored.Transfers.Runs)

	cli := NewInfluxClient(url, org, bucket, token)
	defer cli.Close()
	require.Eventually(t, func() bool {
		n, err := cli.CountRecords(ctx, "allocation_run", "fulfillment_pct", "")
		return err == nil && n == 2
	}, 30*time.Second, time.Second)

	n, err := cli.CountRecords(ctx, "transfer_run", "moved_kg", string(model.StrategyScored))
	require.NoError(t, err)
	assert.Equal(t, len(cmp.Scored.Transfers.Runs), n)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name()}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
