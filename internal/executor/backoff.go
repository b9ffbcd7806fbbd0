package executor

import "time"

const (
	backoffBase = time.Second
	backoffCap  = 10 * time.Second
)

// BackoffDelay returns the delay to wait before the given 0-indexed attempt:
// one second doubled per prior retry, capped at ten seconds. Attempt zero
// runs immediately.
func BackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	shift := attempt - 1
	if shift > 62 {
		return backoffCap
	}

	delay := backoffBase << shift
	if delay > backoffCap || delay <= 0 {
		return backoffCap
	}

	return delay
}
