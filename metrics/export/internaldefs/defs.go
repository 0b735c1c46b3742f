package internaldefs

import (
	"github.com/MrEthical07/tokenvault"
)

// CounterDef maps a client counter to its exported name.
type CounterDef struct {
	ID   tokenvault.MetricID
	Name string
	Help string
}

// HistogramDef maps a client histogram to its exported name.
type HistogramDef struct {
	ID   tokenvault.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: tokenvault.MetricTokenReadSuccess, Name: "tokenvault_token_read_success_total", Help: "Token reads that returned a stored value."},
	{ID: tokenvault.MetricTokenReadNotFound, Name: "tokenvault_token_read_not_found_total", Help: "Token reads with no stored value."},
	{ID: tokenvault.MetricTokenReadFailure, Name: "tokenvault_token_read_failure_total", Help: "Token reads failed by the secure store."},
	{ID: tokenvault.MetricTokenWriteSuccess, Name: "tokenvault_token_write_success_total", Help: "Successful token writes."},
	{ID: tokenvault.MetricTokenWriteFailure, Name: "tokenvault_token_write_failure_total", Help: "Token writes failed by the secure store."},
	{ID: tokenvault.MetricTokenDelete, Name: "tokenvault_token_delete_total", Help: "Per-user token deletions."},
	{ID: tokenvault.MetricCapabilitySupported, Name: "tokenvault_capability_supported_total", Help: "Capability checks the server version satisfied."},
	{ID: tokenvault.MetricCapabilityUnsupported, Name: "tokenvault_capability_unsupported_total", Help: "Capability checks the server version did not satisfy."},
	{ID: tokenvault.MetricServerConfigFetchSuccess, Name: "tokenvault_server_config_fetch_success_total", Help: "Successful server config retrievals."},
	{ID: tokenvault.MetricServerConfigFetchFailure, Name: "tokenvault_server_config_fetch_failure_total", Help: "Failed server config retrievals."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: tokenvault.MetricStoreLatency, Name: "tokenvault_store_latency_seconds", Help: "Secure store round-trip latency."},
}

// HistogramBounds are the upper bounds of the client's histogram buckets, in seconds.
var HistogramBounds = []string{
	"0.001",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"+Inf",
}

// HistogramBoundSuffix are HistogramBounds usable in instrument names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into the running totals exporters expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
