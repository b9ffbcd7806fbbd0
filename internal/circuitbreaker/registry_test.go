package circuitbreaker_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caremesh/interlink/config"
	"github.com/caremesh/interlink/internal/circuitbreaker"
	"github.com/caremesh/interlink/internal/registry"
)

func testServices() *registry.Registry {
	services, err := registry.New([]config.ServiceConfig{
		{
			Name:        "patient-records",
			BaseURL:     "http://localhost:8081",
			HealthPath:  "/health",
			CallTimeout: "5s",
			MaxRetries:  2,
			Breaker: config.BreakerConfig{
				FailureThreshold: 2,
				ResetTimeout:     "50ms",
				SuccessesToClose: 1,
			},
		},
		{
			Name:        "form-builder",
			BaseURL:     "http://localhost:8082",
			HealthPath:  "/health",
			CallTimeout: "5s",
			MaxRetries:  1,
			Breaker: config.BreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     "30s",
				SuccessesToClose: 2,
			},
		},
	})
	Expect(err).NotTo(HaveOccurred())
	return services
}

var _ = Describe("Registry", func() {
	var breakers *circuitbreaker.Registry

	BeforeEach(func() {
		breakers = circuitbreaker.NewRegistry(testServices())
	})

	Describe("NewRegistry", func() {
		It("should create a registry", func() {
			Expect(breakers).NotTo(BeNil())
		})
	})

	Describe("Get", func() {
		It("should create a new breaker for a registered service", func() {
			cb, err := breakers.Get("patient-records")
			Expect(err).NotTo(HaveOccurred())
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same service", func() {
			cb1, _ := breakers.Get("patient-records")
			cb2, _ := breakers.Get("patient-records")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should return different breakers for different services", func() {
			cb1, _ := breakers.Get("patient-records")
			cb2, _ := breakers.Get("form-builder")
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
		})

		It("should reject an unregistered service", func() {
			cb, err := breakers.Get("billing")
			Expect(err).To(MatchError(registry.ErrUnknownService))
			Expect(cb).To(BeNil())
		})

		It("should use the service's configured threshold", func() {
			cb, _ := breakers.Get("patient-records")

			// patient-records opens after 2 failures
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should use the service's configured reset timeout", func() {
			cb, _ := breakers.Get("patient-records")

			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))

			time.Sleep(60 * time.Millisecond)
			allowed, _ := cb.Allow()
			Expect(allowed).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})
	})

	Describe("Concurrent access", func() {
		It("should handle concurrent Get calls safely", func() {
			const goroutines = 100

			var wg sync.WaitGroup
			wg.Add(goroutines)

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					cb, err := breakers.Get("patient-records")
					Expect(err).NotTo(HaveOccurred())
					Expect(cb).NotTo(BeNil())
				}()
			}

			wg.Wait()

			stats := breakers.Stats()
			Expect(stats).To(HaveLen(1))
		})

		It("should handle concurrent operations on the same breaker", func() {
			const goroutines = 50

			var wg sync.WaitGroup
			wg.Add(goroutines * 2)

			cb, _ := breakers.Get("form-builder")

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					cb.RecordFailure()
				}()
			}

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					cb.RecordSuccess()
				}()
			}

			wg.Wait()

			state := cb.State()
			Expect(state).To(BeElementOf(
				circuitbreaker.StateClosed,
				circuitbreaker.StateOpen,
				circuitbreaker.StateHalfOpen,
			))
		})
	})

	Describe("Reset", func() {
		It("should clear all breakers", func() {
			breakers.Get("patient-records")
			breakers.Get("form-builder")

			Expect(breakers.Stats()).To(HaveLen(2))

			breakers.Reset()

			Expect(breakers.Stats()).To(BeEmpty())
		})
	})

	Describe("Stats", func() {
		It("should return a snapshot of every breaker", func() {
			cb1, _ := breakers.Get("form-builder")
			cb2, _ := breakers.Get("patient-records")

			// Trip patient-records
			cb2.RecordFailure()
			cb2.RecordFailure()

			stats := breakers.Stats()
			Expect(stats).To(HaveLen(2))
			Expect(stats["form-builder"].State).To(Equal(circuitbreaker.StateClosed))
			Expect(stats["patient-records"].State).To(Equal(circuitbreaker.StateOpen))
			Expect(stats["patient-records"].Failures).To(Equal(2))

			Expect(cb1.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})
})
