// Package observability provides an OpenTelemetry-based metrics
// extension for loom. MetricsExtension implements the instance and task
// lifecycle hooks in package ext to record system-wide counters and a
// duration histogram.
//
// For per-execution tracing and metrics scoped to a single handler
// invocation, see the middleware package: middleware.Tracing() and
// middleware.Metrics().
package observability
