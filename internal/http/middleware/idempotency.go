package middleware

// Idempotency-Key handling for record creation. The middleware validates the
// header, stashes the key for the handler and, when a completed request with
// the same key already exists for the actor, marks the request as a replay so
// the rate limiter lets it through. Serving the stored result stays with the
// handler.

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen key of an unsafe request.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s, _ := c.Value(ctxKeyIdemKey).(string)
	return s, s != ""
}

// IsReplay reports whether the key was already completed for this actor.
func IsReplay(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyIdemReplay).(bool)
	return b
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length. <= 0 means 200.
	MaxLen int
	// Pattern restricts the key alphabet. nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Now is the lookup clock. nil means time.Now in UTC.
	Now func() time.Time
}

// IdempotencyLookup reports whether actorID already completed key and the
// entry has not expired at now.
type IdempotencyLookup func(ctx context.Context, actorID int64, key string, now time.Time) (bool, error)

// IdempotencyValidator must run after Actor. Requests without the header pass
// through untouched and a malformed key is rejected with 400. Lookup failures
// are logged and the request proceeds as a first attempt.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			countRejection(rejectIdempotencyKey)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		actor, ok := ActorFrom(c)
		if lookup != nil && ok {
			exists, err := lookup(c.Request.Context(), actor.ID, key, now())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case exists:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
