package health

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/caremesh/interlink/internal/registry"
)

// Record is the last observed health of one service. It is overwritten on
// each probe cycle and read-only to everything but the monitor.
type Record struct {
	Healthy       bool          `json:"healthy"`
	LastCheckedAt time.Time     `json:"last_checked_at"`
	Latency       time.Duration `json:"latency"`
	LastError     string        `json:"last_error,omitempty"`
}

// Monitor probes every registered service's health endpoint on a fixed
// interval. Probe outcomes never feed the circuit breaker; breaker state is
// driven solely by real traffic.
type Monitor struct {
	services *registry.Registry
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mutex   sync.RWMutex
	records map[string]Record

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMonitor(services *registry.Registry, interval, probeTimeout time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		services: services,
		interval: interval,
		client: &http.Client{
			Timeout: probeTimeout,
		},
		logger:  logger,
		records: make(map[string]Record),
	}
}

// Start launches one probe loop per registered service. The loops run until
// Stop is called or the parent context is canceled.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	for _, desc := range m.services.All() {
		m.wg.Add(1)
		go m.probeLoop(ctx, desc)
	}
}

// Stop cancels the probe loops and waits for them to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) probeLoop(ctx context.Context, desc *registry.ServiceDescriptor) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probe(ctx, desc)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health probe stopped",
				slog.String("service", desc.Name))
			return

		case <-ticker.C:
			m.probe(ctx, desc)
		}
	}
}

func (m *Monitor) probe(ctx context.Context, desc *registry.ServiceDescriptor) {
	probeURL := desc.BaseURL.ResolveReference(&url.URL{Path: desc.HealthPath})

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL.String(), nil)
	if err != nil {
		m.setRecord(desc.Name, Record{
			Healthy:       false,
			LastCheckedAt: time.Now(),
			LastError:     err.Error(),
		})
		return
	}

	res, err := m.client.Do(req)
	if err != nil {
		m.setRecord(desc.Name, Record{
			Healthy:       false,
			LastCheckedAt: time.Now(),
			Latency:       time.Since(start),
			LastError:     err.Error(),
		})
		return
	}
	defer res.Body.Close()

	healthy := res.StatusCode >= 200 && res.StatusCode < 300

	rec := Record{
		Healthy:       healthy,
		LastCheckedAt: time.Now(),
		Latency:       time.Since(start),
	}
	if !healthy {
		rec.LastError = res.Status
	}

	m.setRecord(desc.Name, rec)
}

func (m *Monitor) setRecord(service string, rec Record) {
	m.mutex.Lock()
	previous, seen := m.records[service]
	m.records[service] = rec
	m.mutex.Unlock()

	if seen && previous.Healthy != rec.Healthy {
		if rec.Healthy {
			m.logger.Info("Service is back up",
				slog.String("service", service))
		} else {
			m.logger.Warn("Service is down",
				slog.String("service", service),
				slog.String("error", rec.LastError))
		}
	}
}

// Health returns the last probe record for the named service. The second
// return is false until the service has been probed at least once.
func (m *Monitor) Health(service string) (Record, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rec, ok := m.records[service]
	return rec, ok
}

// AllHealth returns a copy of every service's last probe record.
func (m *Monitor) AllHealth() map[string]Record {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	all := make(map[string]Record, len(m.records))
	for service, rec := range m.records {
		all[service] = rec
	}
	return all
}
