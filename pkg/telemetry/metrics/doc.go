// Package metrics provides Prometheus instrumentation for the authority
// boundary ledger: establish/release outcomes per ring, denied actions,
// gate filtering volume, and turn outcomes with latency.
//
// A Collector owns the registry and the per-concern metric groups; mount
// Handler on an HTTP mux to expose the standard /metrics endpoint.
package metrics
