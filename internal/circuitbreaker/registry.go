package circuitbreaker

import (
	"sync"

	"github.com/caremesh/interlink/internal/registry"
)

// Registry holds one Breaker per registered service, created on first use
// from that service's configured thresholds.
type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]*Breaker
	services *registry.Registry
}

func NewRegistry(services *registry.Registry) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		services: services,
	}
}

// Get returns the breaker for the named service, creating it from the
// service's descriptor on first use. The service must exist in the service
// registry.
func (r *Registry) Get(name string) (*Breaker, error) {
	r.mutex.RLock()
	b, exists := r.breakers[name]
	r.mutex.RUnlock()

	if exists {
		return b, nil
	}

	desc, err := r.services.Lookup(name)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if b, exists = r.breakers[name]; exists {
		return b, nil
	}

	b = New(desc.Breaker)
	r.breakers[name] = b
	return b, nil
}

// Reset discards all breakers, returning every service to CLOSED.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*Breaker)
}

// Stats returns a snapshot of every breaker created so far, keyed by
// service name.
func (r *Registry) Stats() map[string]Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]Snapshot, len(r.breakers))
	for name, b := range r.breakers {
		stats[name] = b.Snapshot()
	}
	return stats
}
