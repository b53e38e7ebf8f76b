// Package health exposes the state of resilience policies as health checks.
//
// This package implements a generic health checking framework plus a
// checker over a resilience registry: a circuit breaker that is open marks
// the service unhealthy, a half-open breaker marks it degraded. It provides
// interfaces for defining health checks, aggregating results from multiple
// checkers, and exposing health status via HTTP endpoints.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	reg := resilience.NewRegistry()
//	check := health.NewBreakerChecker(reg)
//
//	result := check.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("Circuits open: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite
// check:
//
//	agg := health.NewAggregator()
//	agg.Register("breakers", health.NewBreakerChecker(reg))
//	agg.Register("database", dbChecker)
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	// Liveness probe (for Kubernetes)
//	http.Handle("/healthz", health.LivenessHandler())
//
//	// Readiness probe with component checks
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//
//	// Detailed health status with per-policy breaker snapshots
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
