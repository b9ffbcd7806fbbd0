package executor

import "time"

// Attribution carries optional caller-identity fields forwarded as headers
// on the outbound request.
type Attribution struct {
	UserID         string
	Role           string
	OrganizationID string
}

type callOptions struct {
	timeout           time.Duration
	maxRetries        int
	maxRetriesSet     bool
	correlationID     string
	parentCorrelation string
	attribution       Attribution
}

// CallOption overrides per-call behavior of Execute.
type CallOption func(*callOptions)

// WithTimeout overrides the service's configured call timeout for this call.
func WithTimeout(timeout time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = timeout
	}
}

// WithMaxRetries overrides the service's configured retry count for this
// call. Zero means a single attempt.
func WithMaxRetries(maxRetries int) CallOption {
	return func(o *callOptions) {
		o.maxRetries = maxRetries
		o.maxRetriesSet = true
	}
}

// WithCorrelationID sets the correlation id instead of generating a fresh
// one. Used by orchestration patterns for derived leg ids.
func WithCorrelationID(id string) CallOption {
	return func(o *callOptions) {
		o.correlationID = id
	}
}

// WithParentCorrelation marks this call as a fan-out leg of the given
// parent id.
func WithParentCorrelation(parent string) CallOption {
	return func(o *callOptions) {
		o.parentCorrelation = parent
	}
}

// WithAttribution attaches user attribution headers to the outbound request.
func WithAttribution(attr Attribution) CallOption {
	return func(o *callOptions) {
		o.attribution = attr
	}
}
