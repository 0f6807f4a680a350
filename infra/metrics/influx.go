package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/infra/logger"
)

// InfluxSink writes run summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one allocation_run point per completed strategy run.
func (s *InfluxSink) RecordRun(r coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sum := r.Summary
	p := write.NewPointWithMeasurement("allocation_run").
		AddTag("strategy", string(r.Strategy)).
		AddTag("run_id", r.RunID).
		AddField("required_kg", round3(sum.RequiredKg)).
		AddField("allocated_kg", round3(sum.AllocatedKg)).
		AddField("fulfillment_pct", round3(sum.FulfillmentPct)).
		AddField("requests_served", sum.RequestsServed).
		AddField("avg_distance_km", round3(sum.AvgDistanceKm)).
		AddField("avg_delivered_freshness", round3(sum.AvgDeliveredFreshness)).
		AddField("spoiled_kg", round3(sum.SpoiledKg)).
		AddField("at_risk_kg", round3(sum.AtRiskKg)).
		AddField("skipped_lines", r.SkippedLines).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		SetTime(r.Time)
	if r.SignalError != "" {
		p = p.AddField("signal_error", r.SignalError)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTransferRun writes one transfer_run point per planning run.
func (s *InfluxSink) RecordTransferRun(r coremetrics.TransferRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("transfer_run").
		AddTag("strategy", string(r.Strategy)).
		AddTag("status", r.Status).
		AddTag("run_id", r.RunID).
		AddField("moved_kg", round3(r.MovedKg)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client's resources.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
