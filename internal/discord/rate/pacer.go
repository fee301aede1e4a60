// Package rate paces the paginated history calls a channel fetch issues so
// a single fetch cannot hammer the remote API between semaphore slots.
package rate

import (
	"context"

	xrate "golang.org/x/time/rate"
)

// Pacer spaces out requests to a sustained rate with a small burst
// allowance. It is safe for concurrent use by all channel fetches of one
// fetch operation.
type Pacer struct {
	limiter *xrate.Limiter
}

// New creates a pacer allowing requestsPerSecond sustained requests with the
// given burst.
func New(requestsPerSecond float64, burst int) *Pacer {
	return &Pacer{limiter: xrate.NewLimiter(xrate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until the next request may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
