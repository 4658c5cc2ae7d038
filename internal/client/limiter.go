package client

import (
	"context"
	"time"

	"careeros/internal/config"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests with a token bucket shared by all operations
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns nil when client-side rate limiting is disabled
func NewLimiter(cfg config.ClientRateLimitConfig) *Limiter {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		return nil
	}

	burst := cfg.BurstCapacity
	if burst <= 0 {
		burst = 1
	}

	every := time.Minute / time.Duration(cfg.RequestsPerMin)
	return &Limiter{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Wait blocks until a request may be sent or ctx ends
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
