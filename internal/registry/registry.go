package registry

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caremesh/interlink/config"
)

// ErrUnknownService is returned when a caller names a service that was never
// registered. This is a caller misconfiguration, not a runtime fault.
var ErrUnknownService = errors.New("unknown service")

// BreakerConfig holds the circuit breaker thresholds for one service.
type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	SuccessesToClose int
}

// ServiceDescriptor describes one registered downstream service. Descriptors
// are built once at startup and never mutated afterwards.
type ServiceDescriptor struct {
	Name        string
	BaseURL     *url.URL
	HealthPath  string
	CallTimeout time.Duration
	MaxRetries  int
	Breaker     BreakerConfig
}

// defaultSuccessesToClose is used when a service omits
// breaker.successes_to_close from its configuration.
const defaultSuccessesToClose = 2

// Registry is the immutable set of registered services, keyed by name.
type Registry struct {
	services map[string]*ServiceDescriptor
	order    []string
}

// New builds a Registry from the loaded configuration. URLs and durations are
// parsed here so every later lookup is allocation-free.
func New(services []config.ServiceConfig) (*Registry, error) {
	r := &Registry{
		services: make(map[string]*ServiceDescriptor, len(services)),
	}

	for _, svc := range services {
		if _, exists := r.services[svc.Name]; exists {
			return nil, fmt.Errorf("duplicate service name %q", svc.Name)
		}

		baseURL, err := url.Parse(svc.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("service %q: invalid base URL: %w", svc.Name, err)
		}

		callTimeout, err := time.ParseDuration(svc.CallTimeout)
		if err != nil {
			return nil, fmt.Errorf("service %q: invalid call timeout: %w", svc.Name, err)
		}

		resetTimeout, err := time.ParseDuration(svc.Breaker.ResetTimeout)
		if err != nil {
			return nil, fmt.Errorf("service %q: invalid breaker reset timeout: %w", svc.Name, err)
		}

		successesToClose := svc.Breaker.SuccessesToClose
		if successesToClose <= 0 {
			successesToClose = defaultSuccessesToClose
		}

		r.services[svc.Name] = &ServiceDescriptor{
			Name:        svc.Name,
			BaseURL:     baseURL,
			HealthPath:  svc.HealthPath,
			CallTimeout: callTimeout,
			MaxRetries:  svc.MaxRetries,
			Breaker: BreakerConfig{
				FailureThreshold: svc.Breaker.FailureThreshold,
				ResetTimeout:     resetTimeout,
				SuccessesToClose: successesToClose,
			},
		}
		r.order = append(r.order, svc.Name)
	}

	return r, nil
}

// Lookup returns the descriptor for the named service, or ErrUnknownService.
func (r *Registry) Lookup(name string) (*ServiceDescriptor, error) {
	desc, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}

	return desc, nil
}

// All returns the registered descriptors in registration order.
func (r *Registry) All() []*ServiceDescriptor {
	descriptors := make([]*ServiceDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.services[name])
	}

	return descriptors
}

// Names returns the registered service names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
