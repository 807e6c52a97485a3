// Package metric provides Prometheus metrics for snapmesh.
//
// Metrics include:
//
//   - snapshot assertions by mode and outcome
//   - baseline writes, split into written and unchanged
//   - broadcast messages sent, dropped by the rate limiter, or failed
//   - broadcast messages received by the viewer side
//
// A nil *Registry is valid and records nothing, so the matcher can run
// without metrics.
package metric
