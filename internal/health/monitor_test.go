package health_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caremesh/interlink/config"
	"github.com/caremesh/interlink/internal/health"
	"github.com/caremesh/interlink/internal/registry"
)

func TestHealth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Health Suite")
}

var _ = Describe("Monitor", func() {
	var (
		log      *slog.Logger
		server   *httptest.Server
		healthy  atomic.Bool
		services *registry.Registry
		monitor  *health.Monitor
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
		healthy.Store(true)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if healthy.Load() {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		var err error
		services, err = registry.New([]config.ServiceConfig{
			{
				Name:        "patient-records",
				BaseURL:     server.URL,
				HealthPath:  "/health",
				CallTimeout: "2s",
				Breaker: config.BreakerConfig{
					FailureThreshold: 3,
					ResetTimeout:     "30s",
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		monitor = health.NewMonitor(services, 50*time.Millisecond, time.Second, log)
	})

	AfterEach(func() {
		monitor.Stop()
		server.Close()
	})

	It("should record a healthy service", func() {
		monitor.Start(context.Background())

		Eventually(func() bool {
			rec, ok := monitor.Health("patient-records")
			return ok && rec.Healthy
		}).Should(BeTrue())

		rec, _ := monitor.Health("patient-records")
		Expect(rec.LastCheckedAt).NotTo(BeZero())
		Expect(rec.Latency).To(BeNumerically(">", 0))
		Expect(rec.LastError).To(BeEmpty())
	})

	It("should record an unhealthy service with the failing status", func() {
		healthy.Store(false)
		monitor.Start(context.Background())

		Eventually(func() bool {
			rec, ok := monitor.Health("patient-records")
			return ok && !rec.Healthy
		}).Should(BeTrue())

		rec, _ := monitor.Health("patient-records")
		Expect(rec.LastError).To(ContainSubstring("503"))
	})

	It("should observe recovery on a later probe cycle", func() {
		healthy.Store(false)
		monitor.Start(context.Background())

		Eventually(func() bool {
			rec, ok := monitor.Health("patient-records")
			return ok && !rec.Healthy
		}).Should(BeTrue())

		healthy.Store(true)

		Eventually(func() bool {
			rec, _ := monitor.Health("patient-records")
			return rec.Healthy
		}).Should(BeTrue())
	})

	It("should mark a transport failure unhealthy", func() {
		server.Close()
		monitor.Start(context.Background())

		Eventually(func() bool {
			rec, ok := monitor.Health("patient-records")
			return ok && !rec.Healthy
		}).Should(BeTrue())

		rec, _ := monitor.Health("patient-records")
		Expect(rec.LastError).NotTo(BeEmpty())
	})

	It("should stop probing when stopped", func() {
		monitor.Start(context.Background())

		Eventually(func() bool {
			_, ok := monitor.Health("patient-records")
			return ok
		}).Should(BeTrue())

		monitor.Stop()

		rec, _ := monitor.Health("patient-records")
		checkedAt := rec.LastCheckedAt

		Consistently(func() time.Time {
			rec, _ := monitor.Health("patient-records")
			return rec.LastCheckedAt
		}, 200*time.Millisecond).Should(Equal(checkedAt))
	})

	It("should stop when the parent context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		monitor.Start(ctx)

		Eventually(func() bool {
			_, ok := monitor.Health("patient-records")
			return ok
		}).Should(BeTrue())

		cancel()

		done := make(chan struct{})
		go func() {
			monitor.Stop()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
	})

	Describe("AllHealth", func() {
		It("should return an independent copy of the records", func() {
			monitor.Start(context.Background())

			Eventually(func() int {
				return len(monitor.AllHealth())
			}).Should(Equal(1))

			all := monitor.AllHealth()
			all["patient-records"] = health.Record{}

			rec, _ := monitor.Health("patient-records")
			Expect(rec.Healthy).To(BeTrue())
		})
	})

	Describe("Health", func() {
		It("should report absence before the first probe", func() {
			_, ok := monitor.Health("patient-records")
			Expect(ok).To(BeFalse())
		})
	})
})
