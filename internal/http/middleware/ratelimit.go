package middleware

// Process-local token buckets per actor. Reads and writes draw from separate
// buckets so a burst of list requests cannot starve status changes. Requests
// marked as idempotent replays skip the limiter.

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to its bucket identity.
type KeyFunc func(*gin.Context) string

// KeyByActorOrIP keys authenticated requests by actor id and everything else
// by client IP. The prefixes keep the two namespaces apart.
func KeyByActorOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if a, ok := ActorFrom(c); ok && a.ID > 0 {
			return "actor:" + strconv.FormatInt(a.ID, 10)
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimitOptions sizes the buckets. Zero write values reuse the read ones.
type RateLimitOptions struct {
	RPS        float64
	Burst      int
	WriteRPS   float64
	WriteBurst int
	// IdleTTL evicts buckets not touched for this long. <= 0 means 10m.
	IdleTTL time.Duration
	Key     KeyFunc
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is safe for concurrent use.
type RateLimiter struct {
	read, write tier
	ttl         time.Duration
	keyFn       KeyFunc
	now         func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
}

type tier struct {
	limit rate.Limit
	burst int
}

// sweepEvery is how many lookups pass between idle-bucket sweeps.
const sweepEvery = 5000

// NewRateLimiter builds a limiter. Bursts <= 0 are raised to 1.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	read := tier{limit: rate.Limit(opts.RPS), burst: max(opts.Burst, 1)}
	write := read
	if opts.WriteRPS > 0 {
		write = tier{limit: rate.Limit(opts.WriteRPS), burst: max(opts.WriteBurst, 1)}
	}
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	keyFn := opts.Key
	if keyFn == nil {
		keyFn = KeyByActorOrIP()
	}
	return &RateLimiter{
		read:    read,
		write:   write,
		ttl:     ttl,
		keyFn:   keyFn,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// limiter returns the bucket for key, sweeping idle buckets first so a stale
// entry is rebuilt rather than refreshed.
func (rl *RateLimiter) limiter(key string, t tier, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(t.limit, t.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged a replay.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// Handler enforces the limits, answering 429 with Retry-After in whole
// seconds when the bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key, t := rl.keyFn(c), rl.read
		if isWrite(c.Request.Method) {
			key, t = key+"|w", rl.write
		}
		now := rl.now()
		res := rl.limiter(key, t, now).ReserveN(now, 1)
		delay := res.DelayFrom(now)
		if res.OK() && delay == 0 {
			c.Next()
			return
		}
		if res.OK() {
			res.CancelAt(now)
		}

		countRejection(rejectRateLimited)
		c.Header("Retry-After", retryAfter(delay))
		LoggerFrom(c).Warn().Str("bucket", key).Dur("delay", delay).Msg("rate limited")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// retryAfter rounds d up to whole seconds, never below 1. A reservation that
// can never succeed reports rate.InfDuration.
func retryAfter(d time.Duration) string {
	if d <= 0 || d == rate.InfDuration {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
