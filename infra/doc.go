// Package infra holds the adapters behind the core interfaces: solver
// backends, instance loading, run-log and cache backends, metrics sinks,
// the MQTT setpoint publisher and Sentry monitoring. Core packages never
// import infra.
package infra
