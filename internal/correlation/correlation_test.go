package correlation_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caremesh/interlink/internal/correlation"
)

func TestCorrelation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Correlation Suite")
}

var _ = Describe("Correlation", func() {
	Describe("NewID", func() {
		It("should generate a non-empty id", func() {
			Expect(correlation.NewID()).NotTo(BeEmpty())
		})

		It("should never generate the same id twice", func() {
			seen := make(map[string]bool)
			for i := 0; i < 10000; i++ {
				id := correlation.NewID()
				Expect(seen[id]).To(BeFalse())
				seen[id] = true
			}
		})
	})

	Describe("Child", func() {
		It("should suffix the parent id with the service name", func() {
			Expect(correlation.Child("abc-123", "patient-records")).
				To(Equal("abc-123_patient-records"))
		})
	})

	Describe("NewRequestContext", func() {
		It("should carry the caller identity and a fresh id", func() {
			rc := correlation.NewRequestContext("interlink")
			Expect(rc.CorrelationID).NotTo(BeEmpty())
			Expect(rc.ParentCorrelationID).To(BeEmpty())
			Expect(rc.Caller).To(Equal("interlink"))
			Expect(rc.CreatedAt).NotTo(BeZero())
		})
	})

	Describe("ChildContext", func() {
		It("should derive the leg id and keep the parent linked", func() {
			parent := correlation.NewRequestContext("interlink")
			child := correlation.ChildContext(parent, "form-builder")

			Expect(child.CorrelationID).To(Equal(parent.CorrelationID + "_form-builder"))
			Expect(child.ParentCorrelationID).To(Equal(parent.CorrelationID))
			Expect(child.Caller).To(Equal("interlink"))
		})
	})
})
