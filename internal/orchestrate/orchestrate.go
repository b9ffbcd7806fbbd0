package orchestrate

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/caremesh/interlink/internal/correlation"
	"github.com/caremesh/interlink/internal/executor"
)

// Request names one leg of a fan-out or sequential operation.
type Request struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Payload any    `json:"payload,omitempty"`
}

// LegResult is the per-service outcome of one leg. Results are indexed by
// input position, never by completion order.
type LegResult struct {
	Service       string          `json:"service"`
	Success       bool            `json:"success"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Error         string          `json:"error,omitempty"`
	StatusCode    int             `json:"status_code,omitempty"`
	CorrelationID string          `json:"correlation_id"`
}

// LegError records one failed leg of an aggregate operation.
type LegError struct {
	Service    string `json:"service"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
}

type BroadcastResult struct {
	CorrelationID string      `json:"correlation_id"`
	Results       []LegResult `json:"results"`
}

type AggregateResult struct {
	CorrelationID  string         `json:"correlation_id"`
	Success        bool           `json:"success"`
	Payload        map[string]any `json:"payload"`
	Errors         []LegError     `json:"errors"`
	PartialSuccess bool           `json:"partial_success"`
}

type SequentialResult struct {
	CorrelationID  string      `json:"correlation_id"`
	Results        []LegResult `json:"results"`
	OverallSuccess bool        `json:"overall_success"`
}

// Orchestrator composes multiple executor calls across services. Every leg
// goes through the executor and therefore inherits its breaker and retry
// behavior; a failing service inside a fan-out retries no more and no less
// aggressively than a standalone call.
type Orchestrator struct {
	exec   *executor.Executor
	logger *slog.Logger
}

func New(exec *executor.Executor, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		exec:   exec,
		logger: logger,
	}
}

// Broadcast issues the same call to every named service concurrently and
// collects per-service outcomes. Leg failures never surface as errors; the
// result array preserves input order regardless of completion order.
func (o *Orchestrator) Broadcast(ctx context.Context, services []string, method, path string, payload any) BroadcastResult {
	parent := correlation.NewID()

	o.logger.Info("Broadcasting request",
		slog.String("correlation_id", parent),
		slog.String("path", path),
		slog.Int("services", len(services)))

	results := make([]LegResult, len(services))

	var g errgroup.Group
	for i, service := range services {
		g.Go(func() error {
			results[i] = o.leg(ctx, parent, Request{
				Service: service,
				Method:  method,
				Path:    path,
				Payload: payload,
			})
			return nil
		})
	}
	_ = g.Wait() // legs never return errors; outcomes live in results

	return BroadcastResult{
		CorrelationID: parent,
		Results:       results,
	}
}

// Aggregate executes heterogeneous requests concurrently, merging successful
// payloads into a map keyed by service name and collecting failed legs into
// a separate error list. Success requires every leg to succeed;
// PartialSuccess is set when at least one leg succeeded.
func (o *Orchestrator) Aggregate(ctx context.Context, requests []Request) AggregateResult {
	parent := correlation.NewID()

	o.logger.Info("Aggregating requests",
		slog.String("correlation_id", parent),
		slog.Int("requests", len(requests)))

	results := make([]LegResult, len(requests))

	var g errgroup.Group
	for i, req := range requests {
		g.Go(func() error {
			results[i] = o.leg(ctx, parent, req)
			return nil
		})
	}
	_ = g.Wait()

	agg := AggregateResult{
		CorrelationID: parent,
		Payload:       make(map[string]any, len(requests)),
		Errors:        []LegError{},
	}

	for _, res := range results {
		if !res.Success {
			agg.Errors = append(agg.Errors, LegError{
				Service:    res.Service,
				Error:      res.Error,
				StatusCode: res.StatusCode,
			})
			continue
		}

		agg.PartialSuccess = true
		agg.Payload[res.Service] = decodePayload(res.Payload)
	}

	agg.Success = len(agg.Errors) == 0
	return agg
}

// Sequential executes operations strictly in list order, one at a time.
// With stopOnFailure set, a failing leg skips every remaining operation;
// skipped operations do not appear in Results.
func (o *Orchestrator) Sequential(ctx context.Context, operations []Request, stopOnFailure bool) SequentialResult {
	parent := correlation.NewID()

	o.logger.Info("Executing sequential operations",
		slog.String("correlation_id", parent),
		slog.Int("operations", len(operations)),
		slog.Bool("stop_on_failure", stopOnFailure))

	seq := SequentialResult{
		CorrelationID:  parent,
		Results:        []LegResult{},
		OverallSuccess: true,
	}

	for _, op := range operations {
		if ctx.Err() != nil {
			seq.OverallSuccess = false
			break
		}

		res := o.leg(ctx, parent, op)
		seq.Results = append(seq.Results, res)

		if !res.Success {
			seq.OverallSuccess = false
			if stopOnFailure {
				break
			}
		}
	}

	return seq
}

func (o *Orchestrator) leg(ctx context.Context, parent string, req Request) LegResult {
	corrID := correlation.Child(parent, req.Service)

	if ctx.Err() != nil {
		return LegResult{
			Service:       req.Service,
			Success:       false,
			Error:         "leg not launched: " + ctx.Err().Error(),
			CorrelationID: corrID,
		}
	}

	res, err := o.exec.Execute(ctx, req.Service, req.Method, req.Path, req.Payload,
		executor.WithCorrelationID(corrID),
		executor.WithParentCorrelation(parent))
	if err != nil {
		// Unknown service: a misconfigured leg fails, the pattern continues.
		return LegResult{
			Service:       req.Service,
			Success:       false,
			Error:         err.Error(),
			CorrelationID: corrID,
		}
	}

	return LegResult{
		Service:       req.Service,
		Success:       res.Success,
		Payload:       res.Payload,
		Error:         res.ErrorMessage,
		StatusCode:    res.StatusCode,
		CorrelationID: res.CorrelationID,
	}
}

func decodePayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}
