// Package circuitbreaker implements the circuit breaker pattern for calls to
// downstream services.
//
// A circuit breaker prevents cascading failures by temporarily blocking
// requests to a failing service. It has three states:
//
//   - CLOSED: Normal operation, requests pass through
//   - OPEN: Service failing, requests blocked
//   - HALF-OPEN: Testing if the service recovered
//
// Usage:
//
//	breakers := circuitbreaker.NewRegistry(services)
//	b, _ := breakers.Get("patient-records")
//	if allowed, _ := b.Allow(); allowed {
//	    // Make request...
//	    if err != nil {
//	        b.RecordFailure()
//	    } else {
//	        b.RecordSuccess()
//	    }
//	}
package circuitbreaker
