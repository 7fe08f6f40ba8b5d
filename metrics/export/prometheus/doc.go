// Package prometheus exposes Verifier metrics through prometheus/client_golang.
//
// [NewCollector] wraps a [goVerify.Verifier] as a prometheus.Collector that
// reads MetricsSnapshot on every scrape. Counter names are goverify_*_total;
// the single histogram is goverify_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. Callers register the
//     Collector themselves or mount [Handler].
//   - Mutate verifier state.
package prometheus
