package executor

import (
	"time"

	"github.com/jpillora/backoff"
)

// Retry pacing for resubmissions. Requotes retry quickly at a refreshed
// price; silent venue responses back off harder before trying again.
const (
	requoteDelay    = 500 * time.Millisecond
	noResponseDelay = 1 * time.Second
)

// newNoResponseBackoff paces retries after the venue goes silent.
func newNoResponseBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    noResponseDelay,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}
