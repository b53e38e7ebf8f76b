// Package observe provides observability primitives for resilient calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into a resilience
// registry or server middleware.
//
// The package exposes three primitives behind one Observer facade:
//
//   - Logger: leveled JSON structured logging with policy scoping.
//   - Metrics: OpenTelemetry counters and histograms for call outcomes and
//     circuit state transitions.
//   - Tracer: one span per resilient call, with error status recorded.
//
// # Usage
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "payment-service",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer obs.Shutdown(ctx)
//
//	reg := resilience.NewRegistry(
//	    resilience.WithLogger(obs.Logger()),
//	    resilience.WithMetrics(obs.Metrics()),
//	)
package observe
