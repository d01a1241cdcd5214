package middleware

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// RedactOptions configures what AccessLog scrubs before writing a line.
//
// Authorization, Cookie, Set-Cookie and X-User-Roles are always masked.
// MaskHeaders adds more header names and MaskQuery names query parameters
// whose values are dropped entirely (the free-text search, for instance,
// usually carries a requester's name).
type RedactOptions struct {
	MaskHeaders []string
	MaskQuery   []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex runs from ids never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
	// Brazilian taxpayer ids, dotted or bare.
	cpfRE = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
)

type scrubber struct {
	headers map[string]struct{}
	query   map[string]struct{}
}

func newScrubber(opts RedactOptions) *scrubber {
	s := &scrubber{
		headers: map[string]struct{}{
			"authorization": {},
			"cookie":        {},
			"set-cookie":    {},
			strings.ToLower(HeaderUserRoles): {},
		},
		query: map[string]struct{}{},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			s.headers[h] = struct{}{}
		}
	}
	for _, q := range opts.MaskQuery {
		if q = strings.TrimSpace(q); q != "" {
			s.query[q] = struct{}{}
		}
	}
	return s
}

// text replaces identifiers found in free text. UUIDs go first so the looser
// phone pattern cannot eat their digit groups.
func (s *scrubber) text(v string) string {
	if v == "" {
		return v
	}
	v = uuidRE.ReplaceAllString(v, "[REDACTED:id]")
	v = emailRE.ReplaceAllString(v, "[REDACTED:email]")
	v = cpfRE.ReplaceAllString(v, "[REDACTED:cpf]")
	return phoneRE.ReplaceAllString(v, "[REDACTED:phone]")
}

func (s *scrubber) rawQuery(raw string) string {
	if raw == "" || len(s.query) == 0 {
		return s.text(raw)
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return s.text(raw)
	}
	for k := range vals {
		if _, ok := s.query[k]; ok {
			vals[k] = []string{redacted}
		}
	}
	// Encode escapes the brackets; unescape so the log stays readable.
	enc := vals.Encode()
	if dec, err := url.QueryUnescape(enc); err == nil {
		enc = dec
	}
	return s.text(enc)
}

func (s *scrubber) headerMap(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := s.headers[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = s.text(strings.Join(vv, ", "))
	}
	return out
}
