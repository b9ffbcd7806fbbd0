// Package executor performs single logical calls against registered services.
//
// A call consults the service's circuit breaker before any network attempt,
// retries transient failures (5xx, network error, timeout) with capped
// exponential backoff, stops immediately on 4xx responses, and reports
// exactly one success or failure signal to the breaker per logical call.
// Audit events are emitted before each attempt and on the final outcome.
package executor
