package middleware

import (
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// TierLimiters holds both tiers for one client IP: Fresh admits requests
// that may invoke the OCR engine, Cached admits extra requests that must be
// answered from the cache.
type TierLimiters struct {
	Fresh  *rate.Limiter
	Cached *rate.Limiter
}

// FreshTokens returns the number of tokens available in the fresh tier
func (tl *TierLimiters) FreshTokens() int {
	return int(math.Floor(tl.Fresh.Tokens()))
}

// CachedTokens returns the number of tokens available in the cached tier
func (tl *TierLimiters) CachedTokens() int {
	return int(math.Floor(tl.Cached.Tokens()))
}

// IPRateLimiter manages two-tier rate limiting per IP
type IPRateLimiter struct {
	ips         map[string]*TierLimiters
	mu          sync.Mutex
	freshRate   rate.Limit
	freshBurst  int
	cachedRate  rate.Limit
	cachedBurst int
}

// NewIPRateLimiter creates a new two-tier rate limiter
func NewIPRateLimiter(freshRate rate.Limit, freshBurst int, cachedRate rate.Limit, cachedBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:         make(map[string]*TierLimiters),
		freshRate:   freshRate,
		freshBurst:  freshBurst,
		cachedRate:  cachedRate,
		cachedBurst: cachedBurst,
	}
}

// FreshLimit returns the fresh tier burst limit
func (i *IPRateLimiter) FreshLimit() int {
	return i.freshBurst
}

// CachedLimit returns the cached tier burst limit
func (i *IPRateLimiter) CachedLimit() int {
	return i.cachedBurst
}

// GetLimiter returns the limiters for ip, creating them on first sight.
func (i *IPRateLimiter) GetLimiter(ip string) *TierLimiters {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limiters, ok := i.ips[ip]; ok {
		return limiters
	}

	limiters := &TierLimiters{
		Fresh:  rate.NewLimiter(i.freshRate, i.freshBurst),
		Cached: rate.NewLimiter(i.cachedRate, i.cachedBurst),
	}
	i.ips[ip] = limiters
	return limiters
}
