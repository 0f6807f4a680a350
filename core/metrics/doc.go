// Package metrics aggregates allocation results into comparable summaries and
// defines the sinks that record completed runs.
//
// Summarize and Improve are pure: they never mutate allocations or batches.
// Sinks such as PromSink and InfluxSink live in infra/metrics and register
// themselves on the factory registry; NewMetricsSink drops nop entries and
// returns a MultiSink when several sinks remain.
package metrics
