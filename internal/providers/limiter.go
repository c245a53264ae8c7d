package providers

import (
	"context"
	"sync"

	"guesthouse/roomsync/internal/constants"

	"golang.org/x/time/rate"
)

// ChannelLimiter keeps one token bucket per channel manager so a burst of
// triggers cannot flood a single OTA.
type ChannelLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

// NewChannelLimiter returns nil (no limiting) when perSecond is not positive.
func NewChannelLimiter(perSecond float64, burst int) *ChannelLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &ChannelLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(perSecond),
		b:        burst,
	}
}

func (l *ChannelLimiter) get(channelID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[channelID]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[channelID] = limiter
	}
	return limiter
}

// Wait blocks until the channel may be called again. A context that ends
// first yields a rate-limited ProviderError.
func (l *ChannelLimiter) Wait(ctx context.Context, channelID string) error {
	if l == nil {
		return nil
	}
	if err := l.get(channelID).Wait(ctx); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Err:     err,
		}
	}
	return nil
}
