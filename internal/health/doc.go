// Package health implements periodic health probing for registered services.
// It maintains an observable per-service health cache for diagnostics. Probe
// results are informational only and never gate the circuit breaker.
package health
