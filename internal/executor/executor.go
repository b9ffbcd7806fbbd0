package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/caremesh/interlink/internal/audit"
	"github.com/caremesh/interlink/internal/circuitbreaker"
	"github.com/caremesh/interlink/internal/correlation"
	"github.com/caremesh/interlink/internal/registry"
	"github.com/caremesh/interlink/internal/token"
)

// CallResult is the structured outcome of one logical call. Transient and
// breaker-related failures are reported here, never as Go errors, so fan-out
// patterns can keep processing other legs.
type CallResult struct {
	Success       bool            `json:"success"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ErrorMessage  string          `json:"error,omitempty"`
	StatusCode    int             `json:"status_code,omitempty"`
	CorrelationID string          `json:"correlation_id"`
	Duration      time.Duration   `json:"duration"`
	AttemptsMade  int             `json:"attempts_made"`
}

// Executor performs single logical calls against registered services,
// consulting the service's circuit breaker before the call and reporting the
// outcome to it afterwards.
type Executor struct {
	services *registry.Registry
	breakers *circuitbreaker.Registry
	client   *resty.Client
	sink     audit.Sink
	issuer   *token.Issuer
	caller   string
	logger   *slog.Logger
}

func New(
	services *registry.Registry,
	breakers *circuitbreaker.Registry,
	sink audit.Sink,
	issuer *token.Issuer,
	caller string,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		services: services,
		breakers: breakers,
		client:   resty.New(),
		sink:     sink,
		issuer:   issuer,
		caller:   caller,
		logger:   logger,
	}
}

// Execute performs one logical call against the named service, retrying
// transient failures with capped exponential backoff.
//
// The only error return is an unknown service name, which is a caller
// misconfiguration. Every runtime failure (breaker denial, timeout, 4xx,
// 5xx, network error) is reported inside the CallResult.
func (e *Executor) Execute(ctx context.Context, service, method, path string, payload any, opts ...CallOption) (CallResult, error) {
	desc, err := e.services.Lookup(service)
	if err != nil {
		return CallResult{}, fmt.Errorf("execute %s %s: %w", method, path, err)
	}

	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	timeout := desc.CallTimeout
	if o.timeout > 0 {
		timeout = o.timeout
	}

	maxRetries := desc.MaxRetries
	if o.maxRetriesSet {
		maxRetries = o.maxRetries
	}

	corrID := o.correlationID
	if corrID == "" {
		corrID = correlation.NewID()
	}

	start := time.Now()

	breaker, err := e.breakers.Get(service)
	if err != nil {
		return CallResult{}, fmt.Errorf("execute %s %s: %w", method, path, err)
	}

	allowed, observed := breaker.Allow()
	if !allowed {
		e.logger.Warn("Breaker open, refusing call",
			slog.String("service", service),
			slog.String("path", path),
			slog.String("correlation_id", corrID))

		e.emit(audit.Event{
			Type:          audit.EventRequestFailed,
			ActorID:       e.caller,
			Service:       service,
			Method:        method,
			Path:          path,
			CorrelationID: corrID,
			Reason:        audit.ReasonCircuitOpen,
			Duration:      time.Since(start),
		})

		return CallResult{
			Success:       false,
			ErrorMessage:  "service unavailable (breaker open)",
			CorrelationID: corrID,
			Duration:      time.Since(start),
		}, nil
	}

	var (
		lastReason  audit.Reason
		lastMessage string
		lastStatus  int
		attempts    int
	)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := e.wait(ctx, BackoffDelay(attempt)); err != nil {
				lastReason = audit.ReasonTimeout
				lastMessage = fmt.Sprintf("call canceled before retry: %v", err)
				break
			}
		}

		e.emit(audit.Event{
			Type:          audit.EventRequestAttempted,
			ActorID:       e.caller,
			Service:       service,
			Method:        method,
			Path:          path,
			CorrelationID: corrID,
			Attempt:       attempt,
			BreakerState:  observed.String(),
		})

		attempts++
		resp, err := e.attempt(ctx, desc, method, path, payload, timeout, corrID, o)

		if err != nil {
			lastReason, lastMessage = classifyTransportError(err)
			lastStatus = 0
			continue
		}

		status := resp.StatusCode()

		switch {
		case status >= 200 && status < 300:
			breaker.RecordSuccess()

			e.emit(audit.Event{
				Type:          audit.EventRequestSucceeded,
				ActorID:       e.caller,
				Service:       service,
				Method:        method,
				Path:          path,
				CorrelationID: corrID,
				Attempt:       attempt,
				StatusCode:    status,
				Duration:      time.Since(start),
			})

			return CallResult{
				Success:       true,
				Payload:       json.RawMessage(resp.Body()),
				StatusCode:    status,
				CorrelationID: corrID,
				Duration:      time.Since(start),
				AttemptsMade:  attempts,
			}, nil

		case status >= 400 && status < 500:
			// Client errors are the caller's fault, not a health signal:
			// no retries and no breaker accounting.
			e.emit(audit.Event{
				Type:          audit.EventRequestFailed,
				ActorID:       e.caller,
				Service:       service,
				Method:        method,
				Path:          path,
				CorrelationID: corrID,
				StatusCode:    status,
				Reason:        audit.ReasonClientError,
				Duration:      time.Since(start),
			})

			return CallResult{
				Success:       false,
				ErrorMessage:  fmt.Sprintf("%s responded %d", service, status),
				StatusCode:    status,
				CorrelationID: corrID,
				Duration:      time.Since(start),
				AttemptsMade:  attempts,
			}, nil

		default:
			lastReason = audit.ReasonServerError
			lastMessage = fmt.Sprintf("%s responded %d", service, status)
			lastStatus = status
		}
	}

	// One reliability signal per logical call, not one per attempt.
	breaker.RecordFailure()

	e.emit(audit.Event{
		Type:          audit.EventRequestFailed,
		ActorID:       e.caller,
		Service:       service,
		Method:        method,
		Path:          path,
		CorrelationID: corrID,
		StatusCode:    lastStatus,
		Reason:        lastReason,
		Duration:      time.Since(start),
	})

	e.logger.Warn("Call failed",
		slog.String("service", service),
		slog.String("path", path),
		slog.String("correlation_id", corrID),
		slog.String("reason", string(lastReason)),
		slog.Int("attempts", attempts))

	return CallResult{
		Success:       false,
		ErrorMessage:  lastMessage,
		StatusCode:    lastStatus,
		CorrelationID: corrID,
		Duration:      time.Since(start),
		AttemptsMade:  attempts,
	}, nil
}

func (e *Executor) attempt(
	ctx context.Context,
	desc *registry.ServiceDescriptor,
	method, path string,
	payload any,
	timeout time.Duration,
	corrID string,
	o callOptions,
) (*resty.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := desc.BaseURL.ResolveReference(&url.URL{Path: path})

	req := e.client.R().
		SetContext(attemptCtx).
		SetHeader("X-Correlation-ID", corrID).
		SetHeader("X-Caller-Service", e.caller).
		SetHeader("X-Request-Timestamp", time.Now().UTC().Format(time.RFC3339Nano))

	if o.parentCorrelation != "" {
		req.SetHeader("X-Parent-Correlation-ID", o.parentCorrelation)
	}
	if o.attribution.UserID != "" {
		req.SetHeader("X-User-ID", o.attribution.UserID)
	}
	if o.attribution.Role != "" {
		req.SetHeader("X-User-Role", o.attribution.Role)
	}
	if o.attribution.OrganizationID != "" {
		req.SetHeader("X-Organization-ID", o.attribution.OrganizationID)
	}

	if e.issuer != nil {
		bearer, err := e.issuer.Mint(e.caller, desc.Name)
		if err != nil {
			return nil, err
		}
		req.SetAuthToken(bearer)
	}

	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	return req.Execute(method, target.String())
}

func (e *Executor) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Executor) emit(event audit.Event) {
	if e.sink == nil {
		return
	}

	event.Timestamp = time.Now()
	e.sink.LogEvent(event.ActorID, event.Type, event.Metadata())
}

func classifyTransportError(err error) (audit.Reason, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return audit.ReasonTimeout, "call timed out: " + err.Error()
	}
	if errors.Is(err, context.Canceled) {
		return audit.ReasonTimeout, "call canceled: " + err.Error()
	}

	return audit.ReasonNetworkError, "network error: " + err.Error()
}
