// Package otel binds tokenvault client metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter for each client counter and an
// Int64ObservableGauge per store latency bucket. A single callback reads
// [tokenvault.Client.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
