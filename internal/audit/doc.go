// Package audit emits structured events at every call boundary.
//
// Three event classes are produced: request_attempted before each network
// attempt, request_succeeded on a 2xx response, and request_failed with a
// reason (circuit_open, timeout, client_error, server_error, network_error).
// The external audit sink is consumed through the narrow Sink interface; the
// Collector buffers events on a channel so the request path never blocks on
// the sink, and drains the buffer on shutdown to prevent data loss.
package audit
