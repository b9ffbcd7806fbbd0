package registry_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caremesh/interlink/config"
	"github.com/caremesh/interlink/internal/registry"
)

func TestRegistry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Registry Suite")
}

var _ = Describe("Registry", func() {
	var services []config.ServiceConfig

	BeforeEach(func() {
		services = []config.ServiceConfig{
			{
				Name:        "patient-records",
				BaseURL:     "http://localhost:8081",
				HealthPath:  "/health",
				CallTimeout: "5s",
				MaxRetries:  2,
				Breaker: config.BreakerConfig{
					FailureThreshold: 5,
					ResetTimeout:     "30s",
					SuccessesToClose: 2,
				},
			},
			{
				Name:        "resource-library",
				BaseURL:     "http://localhost:8084",
				HealthPath:  "/healthz",
				CallTimeout: "10s",
				MaxRetries:  1,
				Breaker: config.BreakerConfig{
					FailureThreshold: 3,
					ResetTimeout:     "60s",
				},
			},
		}
	})

	Describe("New", func() {
		It("should build descriptors from configuration", func() {
			reg, err := registry.New(services)
			Expect(err).NotTo(HaveOccurred())
			Expect(reg.All()).To(HaveLen(2))
		})

		It("should parse durations and URLs once at startup", func() {
			reg, err := registry.New(services)
			Expect(err).NotTo(HaveOccurred())

			desc, err := reg.Lookup("patient-records")
			Expect(err).NotTo(HaveOccurred())
			Expect(desc.BaseURL.Host).To(Equal("localhost:8081"))
			Expect(desc.CallTimeout).To(Equal(5 * time.Second))
			Expect(desc.Breaker.ResetTimeout).To(Equal(30 * time.Second))
		})

		It("should default the half-open success count when omitted", func() {
			reg, err := registry.New(services)
			Expect(err).NotTo(HaveOccurred())

			desc, _ := reg.Lookup("resource-library")
			Expect(desc.Breaker.SuccessesToClose).To(Equal(2))
		})

		It("should reject duplicate service names", func() {
			services = append(services, services[0])
			_, err := registry.New(services)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("duplicate"))
		})

		It("should reject an invalid call timeout", func() {
			services[0].CallTimeout = "not-a-duration"
			_, err := registry.New(services)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an invalid breaker reset timeout", func() {
			services[0].Breaker.ResetTimeout = "soon"
			_, err := registry.New(services)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Lookup", func() {
		It("should find a registered service", func() {
			reg, _ := registry.New(services)

			desc, err := reg.Lookup("resource-library")
			Expect(err).NotTo(HaveOccurred())
			Expect(desc.Name).To(Equal("resource-library"))
			Expect(desc.HealthPath).To(Equal("/healthz"))
		})

		It("should return ErrUnknownService for an unregistered name", func() {
			reg, _ := registry.New(services)

			desc, err := reg.Lookup("billing")
			Expect(err).To(MatchError(registry.ErrUnknownService))
			Expect(desc).To(BeNil())
		})
	})

	Describe("All", func() {
		It("should preserve registration order", func() {
			reg, _ := registry.New(services)

			all := reg.All()
			Expect(all[0].Name).To(Equal("patient-records"))
			Expect(all[1].Name).To(Equal("resource-library"))
		})
	})

	Describe("Names", func() {
		It("should return a copy of the name list", func() {
			reg, _ := registry.New(services)

			names := reg.Names()
			Expect(names).To(Equal([]string{"patient-records", "resource-library"}))

			names[0] = "mutated"
			Expect(reg.Names()[0]).To(Equal("patient-records"))
		})
	})
})
