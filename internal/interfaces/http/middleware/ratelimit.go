package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// RateLimitInfo is the bucket state after one Allow call.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is an in-memory token bucket per key. It bounds how
// fast one company (or one address) can drive the generative backend.
type TokenBucketLimiter struct {
	rate    float64
	burst   int
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewTokenBucketLimiter refills rate tokens per second up to burst. Buckets
// idle for longer than idle are evicted; zero disables eviction.
func NewTokenBucketLimiter(rate float64, burst int, idle time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		rate:    rate,
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
		idle:    idle,
		stop:    make(chan struct{}),
	}
	if idle > 0 {
		go l.evictLoop()
	}
	return l
}

// Allow takes one token from key's bucket.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burst), lastRefill: now}
		l.buckets[key] = b
	}
	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastRefill = now

	info := RateLimitInfo{
		Limit:   l.burst,
		ResetAt: now.Add(time.Duration(float64(time.Second) / l.rate)),
	}
	if b.tokens < 1 {
		return false, info
	}
	b.tokens--
	info.Remaining = int(b.tokens)
	return true, info
}

// Len is the number of tracked buckets.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the eviction loop.
func (l *TokenBucketLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *TokenBucketLimiter) evictLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evict()
		case <-l.stop:
			return
		}
	}
}

func (l *TokenBucketLimiter) evict() {
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// RateLimitKey buckets by company when the caller middleware found one,
// otherwise by client address.
func RateLimitKey(r *http.Request) string {
	if c, ok := CallerFromContext(r.Context()); ok && c.CompanyID != "" {
		return "company:" + c.CompanyID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimit rejects requests over the limit with 429 and Retry-After.
func RateLimit(l *TokenBucketLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, info := l.Allow(RateLimitKey(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !allowed {
				retry := int(time.Until(info.ResetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeMiddlewareError(w, errors.New(errors.ErrCodeRateLimited, "rate limit exceeded, please retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
