// Package registry holds the static per-service configuration: address,
// health endpoint, timeouts, retry policy, and breaker thresholds. Descriptors
// are read-only after startup and require no synchronization.
package registry
