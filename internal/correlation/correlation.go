package correlation

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh correlation id for a top-level call.
func NewID() string {
	return uuid.NewString()
}

// Child derives the correlation id for a fan-out leg targeting the named
// service. The parent id stays recoverable as a prefix, so a trace across
// services needs no separate causality table.
func Child(parent, service string) string {
	return parent + "_" + service
}

// RequestContext carries the tracing identity of one outbound call or
// fan-out leg. It lives for the duration of the call and is never persisted.
type RequestContext struct {
	CorrelationID       string
	ParentCorrelationID string
	Caller              string
	CreatedAt           time.Time
}

// NewRequestContext creates the context for a top-level call.
func NewRequestContext(caller string) RequestContext {
	return RequestContext{
		CorrelationID: NewID(),
		Caller:        caller,
		CreatedAt:     time.Now(),
	}
}

// ChildContext creates the context for a fan-out leg spawned from parent.
func ChildContext(parent RequestContext, service string) RequestContext {
	return RequestContext{
		CorrelationID:       Child(parent.CorrelationID, service),
		ParentCorrelationID: parent.CorrelationID,
		Caller:              parent.Caller,
		CreatedAt:           time.Now(),
	}
}
