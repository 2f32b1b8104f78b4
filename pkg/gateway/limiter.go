package gateway

import (
	"sync"

	"golang.org/x/time/rate"

	"maidchan/pkg/config"
)

const (
	defaultRPS   = 1
	defaultBurst = 5
)

// senderLimiter owns one token bucket per channel sender.
type senderLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// newSenderLimiter returns nil when rate limiting is disabled with a negative rps.
func newSenderLimiter(cfg config.RateLimitConfig) *senderLimiter {
	if cfg.RPS < 0 {
		return nil
	}

	rps := cfg.RPS
	if rps == 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &senderLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether key may trigger another reply now.
func (l *senderLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	return l.limiterFor(key).Allow()
}

// limiterFor returns an existing bucket or lazily creates a new one.
func (l *senderLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok = l.limiters[key]
	if ok {
		return limiter
	}

	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[key] = limiter
	return limiter
}

func senderKey(channelName string, senderID string) string {
	return channelName + ":" + senderID
}
