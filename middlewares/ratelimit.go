package middlewares

import (
	"math"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/atelier/internal"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	Rate    rate.Limit    // Tokens per second
	Burst   int           // Bucket size
	IdleTTL time.Duration // Buckets unused for this long are dropped
	KeyFunc func(internal.Context) string
	Now     func() time.Time
}

// RateLimitOption configures RateLimitConfig.
type RateLimitOption func(*RateLimitConfig)

// WithRateLimitKey overrides how clients are told apart. Defaults to the remote IP.
func WithRateLimitKey(fn func(internal.Context) string) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if fn != nil {
			cfg.KeyFunc = fn
		}
	}
}

// WithRateLimitIdleTTL sets how long an idle client bucket is kept.
func WithRateLimitIdleTTL(d time.Duration) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if d > 0 {
			cfg.IdleTTL = d
		}
	}
}

// WithRateLimitClock overrides the time source.
func WithRateLimitClock(now func() time.Time) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if now != nil {
			cfg.Now = now
		}
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client key.
type RateLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int, opts ...RateLimitOption) *RateLimiter {
	cfg := RateLimitConfig{
		Rate:    rate.Limit(perSecond),
		Burst:   max(burst, 1),
		IdleTTL: 10 * time.Minute,
		KeyFunc: ClientIP,
		Now:     time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
	}
}

// Stage rejects clients that ran out of tokens with TOO_MANY_REQUESTS and a
// Retry-After header. Allowed requests continue.
func (l *RateLimiter) Stage() internal.Stage {
	return func(c internal.Context) (internal.Result, error) {
		ok, wait := l.allow(l.cfg.KeyFunc(c))
		if ok {
			return internal.Continue, nil
		}
		c.SetHeader("Retry-After", strconv.Itoa(int(math.Ceil(max(wait.Seconds(), 1)))))
		return internal.Continue, internal.ErrTooManyRequests
	}
}

// allow takes a token for key. When none is left it reports the wait until
// the next one.
func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.cfg.Rate, l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := v.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// prune drops idle visitors at most once per IdleTTL.
func (l *RateLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.cfg.IdleTTL {
		return
	}
	l.lastPrune = now
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.cfg.IdleTTL {
			delete(l.visitors, key)
		}
	}
}

// Len reports how many client buckets are tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(c internal.Context) string {
	addr := c.Request().RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
