// Package metrics declares the process-wide Prometheus collectors for
// the master, registered once at package init time and served on
// /metrics via promhttp.Handler. All collectors are unlabeled or use
// only bounded-cardinality labels (method, outcome, op) to avoid label
// explosion from arbitrary user keys.
package metrics
