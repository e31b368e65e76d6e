package queue

import (
	"time"
)

// Backoff returns the retry delay after a failed delivery. Exponential
// doubling from the base: 5s, 10s, 20s with the default base, capped so a
// misconfigured attempt limit cannot push jobs out days into the future.
const maxBackoff = 15 * time.Minute

func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
