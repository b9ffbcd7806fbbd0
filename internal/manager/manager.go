package manager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caremesh/interlink/config"
	"github.com/caremesh/interlink/internal/audit"
	"github.com/caremesh/interlink/internal/circuitbreaker"
	"github.com/caremesh/interlink/internal/executor"
	"github.com/caremesh/interlink/internal/health"
	"github.com/caremesh/interlink/internal/orchestrate"
	"github.com/caremesh/interlink/internal/registry"
	"github.com/caremesh/interlink/internal/token"
)

// Manager owns the whole communication layer: the service registry, the
// per-service breakers, the request executor, the orchestration patterns,
// the health monitor, and the audit collector. It is constructed explicitly
// from configuration and passed by reference; there are no package-level
// singletons.
type Manager struct {
	services     *registry.Registry
	breakers     *circuitbreaker.Registry
	executor     *executor.Executor
	orchestrator *orchestrate.Orchestrator
	monitor      *health.Monitor
	collector    *audit.Collector
	logger       *slog.Logger
}

// New wires the communication layer from validated configuration. Audit
// events flow through a buffered collector into the given sink.
func New(cfg *config.Config, sink audit.Sink, logger *slog.Logger) (*Manager, error) {
	services, err := registry.New(cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("building service registry: %w", err)
	}

	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return nil, fmt.Errorf("parsing health check interval: %w", err)
	}

	probeTimeout, err := time.ParseDuration(cfg.HealthCheck.ProbeTimeout)
	if err != nil {
		return nil, fmt.Errorf("parsing health probe timeout: %w", err)
	}

	tokenTTL, err := time.ParseDuration(cfg.Token.TTL)
	if err != nil {
		return nil, fmt.Errorf("parsing token TTL: %w", err)
	}

	breakers := circuitbreaker.NewRegistry(services)
	collector := audit.NewCollector(cfg.Audit.BufferSize, sink, logger)
	issuer := token.NewIssuer([]byte(cfg.Token.SigningKey), cfg.Caller.Name, tokenTTL)

	exec := executor.New(services, breakers, collector, issuer, cfg.Caller.Name, logger)

	return &Manager{
		services:     services,
		breakers:     breakers,
		executor:     exec,
		orchestrator: orchestrate.New(exec, logger),
		monitor:      health.NewMonitor(services, interval, probeTimeout, logger),
		collector:    collector,
		logger:       logger,
	}, nil
}

// Start launches the background health monitor and audit collector. Both
// stop when ctx is canceled; Stop additionally waits for the monitor loops.
func (m *Manager) Start(ctx context.Context) {
	m.collector.Start(ctx)
	m.monitor.Start(ctx)

	m.logger.Info("Communication layer started",
		slog.Int("services", len(m.services.Names())))
}

// Stop shuts down the health monitor and waits for its loops to exit. The
// audit collector drains on context cancellation.
func (m *Manager) Stop() {
	m.monitor.Stop()
}

// Execute performs a single logical call against the named service.
func (m *Manager) Execute(ctx context.Context, service, method, path string, payload any, opts ...executor.CallOption) (executor.CallResult, error) {
	return m.executor.Execute(ctx, service, method, path, payload, opts...)
}

// Broadcast issues the same call to every named service concurrently.
func (m *Manager) Broadcast(ctx context.Context, services []string, method, path string, payload any) orchestrate.BroadcastResult {
	return m.orchestrator.Broadcast(ctx, services, method, path, payload)
}

// Aggregate executes heterogeneous requests concurrently and merges results.
func (m *Manager) Aggregate(ctx context.Context, requests []orchestrate.Request) orchestrate.AggregateResult {
	return m.orchestrator.Aggregate(ctx, requests)
}

// Sequential executes operations strictly in list order.
func (m *Manager) Sequential(ctx context.Context, operations []orchestrate.Request, stopOnFailure bool) orchestrate.SequentialResult {
	return m.orchestrator.Sequential(ctx, operations, stopOnFailure)
}

// Health returns the last probe record for one service.
func (m *Manager) Health(service string) (health.Record, bool) {
	return m.monitor.Health(service)
}

// AllHealth returns the last probe record for every service.
func (m *Manager) AllHealth() map[string]health.Record {
	return m.monitor.AllHealth()
}

// BreakerStats returns a snapshot of every breaker created so far.
func (m *Manager) BreakerStats() map[string]circuitbreaker.Snapshot {
	return m.breakers.Stats()
}

// Services returns the registered service names in registration order.
func (m *Manager) Services() []string {
	return m.services.Names()
}
