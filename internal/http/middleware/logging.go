package middleware

// Request correlation, access logging and panic recovery.
//
// Order in the chain: RequestID, AccessLog, Recovery. AccessLog stores a
// request-scoped zerolog.Logger under the "logger" key and on the request
// context, so services can log through zerolog.Ctx and still carry the
// request id.

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
	// maxQueryLogLength caps the logged raw query, in bytes.
	maxQueryLogLength = 2048
	maxRequestIDLen   = 128
)

// RequestID reuses the caller's X-Request-ID or generates a UUIDv4, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return asString(c.Value(requestIDKey))
}

// AccessLog emits one structured line per request with PII scrubbed from the
// query and headers. Bodies are never logged. Level follows the outcome:
// error for 5xx or collected gin errors, warn for 4xx, info otherwise.
func AccessLog(opts RedactOptions) gin.HandlerFunc {
	scrub := newScrubber(opts)
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		lg := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &lg)
		c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))

		query := scrub.rawQuery(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := scrub.headerMap(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		// Actor may have replaced the logger with one carrying actor_id.
		final := LoggerFrom(c)
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = final.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = final.Error()
		case status >= 400:
			ev = final.Warn()
		default:
			ev = final.Info()
		}
		ev.Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// Recovery turns a panic into a JSON 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, falling back to the global
// one when AccessLog did not run.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate cuts s to max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
