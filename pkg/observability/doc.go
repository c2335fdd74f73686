// Package observability provides structured logging, Prometheus metrics,
// health checks, panic recovery, and graceful shutdown for the gateway.
//
// Logging uses stdlib slog with a JSON handler. Metrics track HTTP traffic,
// authorization decisions, session resolution, and audit delivery. Health
// endpoints run on a separate port for Kubernetes probes: liveness is
// unconditional, readiness reports the identity backend's reachability
// (degraded, not down, since the gate fails closed without it).
package observability
