package audit

import (
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestAttempted EventType = "request_attempted"
	EventRequestSucceeded EventType = "request_succeeded"
	EventRequestFailed    EventType = "request_failed"
)

// Reason classifies why a request failed.
type Reason string

const (
	ReasonCircuitOpen  Reason = "circuit_open"
	ReasonTimeout      Reason = "timeout"
	ReasonClientError  Reason = "client_error"
	ReasonServerError  Reason = "server_error"
	ReasonNetworkError Reason = "network_error"
)

// Event is one audit record emitted at a call boundary.
type Event struct {
	Type          EventType
	ActorID       string
	Service       string
	Method        string
	Path          string
	CorrelationID string
	Attempt       int
	BreakerState  string
	StatusCode    int
	Reason        Reason
	Duration      time.Duration
	Timestamp     time.Time
}

// Sink is the narrow interface to the external audit collaborator.
type Sink interface {
	LogEvent(actorID string, eventType EventType, metadata map[string]any)
}

// Metadata flattens the event into the map shape the sink contract expects.
func (e Event) Metadata() map[string]any {
	md := map[string]any{
		"service":        e.Service,
		"method":         e.Method,
		"path":           e.Path,
		"correlation_id": e.CorrelationID,
		"timestamp":      e.Timestamp,
	}

	switch e.Type {
	case EventRequestAttempted:
		md["attempt"] = e.Attempt
		md["breaker_state"] = e.BreakerState
	case EventRequestSucceeded:
		md["attempt"] = e.Attempt
		md["status_code"] = e.StatusCode
		md["duration_ms"] = e.Duration.Milliseconds()
	case EventRequestFailed:
		md["reason"] = string(e.Reason)
		md["duration_ms"] = e.Duration.Milliseconds()
		if e.StatusCode != 0 {
			md["status_code"] = e.StatusCode
		}
	}

	return md
}

// SlogSink writes audit events to a structured logger. It is the in-process
// default for deployments without an external audit collaborator wired in.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) LogEvent(actorID string, eventType EventType, metadata map[string]any) {
	attrs := make([]any, 0, len(metadata)+2)
	attrs = append(attrs, slog.String("actor", actorID), slog.String("event", string(eventType)))
	for key, value := range metadata {
		attrs = append(attrs, slog.Any(key, value))
	}

	s.logger.Info("audit event", attrs...)
}
