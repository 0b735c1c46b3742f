// Package prometheus renders tokenvault client metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [tokenvault.Client] and exposes an [http.Handler].
// Counter names are prefixed tokenvault_*_total; the single histogram is
// tokenvault_store_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate client state.
package prometheus
