package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Cache policies for SecurityOptions.CacheControl.
const (
	// CachePrivateRevalidate keeps record data out of shared caches while
	// letting browsers revalidate list pages with If-None-Match.
	CachePrivateRevalidate = "private, no-cache"
	CacheNoStore           = "no-store"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests only.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days.
	HSTSMaxAge time.Duration
	// CacheControl is sent verbatim when non-empty.
	CacheControl string
	// ExposeHeaders are listed in Access-Control-Expose-Headers, next to
	// X-Request-ID, so browser clients can read them.
	ExposeHeaders []string
}

// SecurityHeaders adds API hardening headers to every response.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int64(opt.HSTSMaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int64(180 * 24 * time.Hour / time.Second)
	}
	hsts := "max-age=" + strconv.FormatInt(maxAge, 10) + "; includeSubDomains"
	expose := exposeList(opt.ExposeHeaders)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")

		switch opt.CacheControl {
		case "":
		case CacheNoStore:
			h.Set("Cache-Control", CacheNoStore)
			h.Set("Pragma", "no-cache")
		default:
			h.Set("Cache-Control", opt.CacheControl)
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		mergeExpose(h, expose)
		c.Next()
	}
}

func exposeList(extra []string) []string {
	out := []string{requestIDHeader}
	for _, e := range extra {
		e = http.CanonicalHeaderKey(strings.TrimSpace(e))
		if e != "" && e != requestIDHeader {
			out = append(out, e)
		}
	}
	return out
}

// mergeExpose appends names missing from Access-Control-Expose-Headers.
func mergeExpose(h http.Header, names []string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	have := strings.ToLower(cur)
	for _, n := range names {
		if strings.Contains(have, strings.ToLower(n)) {
			continue
		}
		if cur == "" {
			cur = n
		} else {
			cur += ", " + n
		}
	}
	if cur != "" {
		h.Set(hdr, cur)
	}
}

// isHTTPS trusts X-Forwarded-Proto, so run behind a proxy that sets it.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
