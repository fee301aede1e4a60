package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"
)

// fetchChannels runs the per-channel fetcher over all channels with bounded
// concurrency. All fetches are submitted at once; the semaphore serializes
// only actual execution. Results are collected positionally so the returned
// slice preserves channel discovery order regardless of completion order.
func (f *Fetcher) fetchChannels(
	ctx context.Context, svc ChatService, channels []Channel, after, before time.Time,
) ([]ChannelMessages, error) {
	f.audit.LogRateLimit(serviceDiscord, f.cfg.MaxConcurrentChannels)

	var (
		sem     = semaphore.NewWeighted(int64(f.cfg.MaxConcurrentChannels))
		results = make([]ChannelMessages, len(channels))
		p       = pool.New().WithContext(ctx)
	)

	for i, ch := range channels {
		p.Go(func(ctx context.Context) error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return fmt.Errorf("failed to acquire semaphore: %w", err)
			}
			defer sem.Release(1)

			start := time.Now()
			result, ok, err := f.fetchChannelMessages(ctx, svc, ch, after, before)
			f.audit.LogAPICall(serviceDiscord, "fetch_channel_messages", time.Since(start), ok)

			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
