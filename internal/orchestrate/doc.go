// Package orchestrate composes executor calls across multiple services:
// broadcast (same call to N services, fire-and-collect), aggregate
// (heterogeneous calls merged into one keyed payload with separate error
// tracking), and synchronized sequential execution with optional
// stop-on-failure. Partial failure is never escalated to a hard error;
// callers inspect the per-leg results to decide how to react.
package orchestrate
