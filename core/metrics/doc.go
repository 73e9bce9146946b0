// Package metrics defines the interfaces used to record optimizer runs.
// Sinks like PromSink and InfluxSink (in infra/metrics) record one event per
// solved instance and can be combined with NewMultiSink. The factory helpers
// return a MultiSink automatically when multiple sinks are configured.
package metrics
