package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/unarchive-tracker/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func withActor(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, domain.Actor{ID: id, Roles: domain.NewRoleSet(domain.RoleUser)})
		c.Next()
	}
}

func postWithKey(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatal("expected no key")
	}
	if IsReplay(c) {
		t.Fatal("expected no replay")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatal("non-string key must be ignored")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatal("non-bool replay flag must be ignored")
	}
}

func TestIdempotencyValidator_NoHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	r := gin.New()
	r.Use(withActor(1), IdempotencyValidator(IdempotencyOptions{}, func(context.Context, int64, string, time.Time) (bool, error) {
		called = true
		return false, nil
	}))
	r.POST("/records", func(c *gin.Context) { c.Status(http.StatusCreated) })

	if w := postWithKey(r, "/records", ""); w.Code != http.StatusCreated {
		t.Fatalf("got %d", w.Code)
	}
	if called {
		t.Fatal("lookup must not run without a key")
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"default alphabet", IdempotencyOptions{}, "has space"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), IdempotencyValidator(tc.opts, nil))
			r.POST("/records", func(c *gin.Context) { c.Status(http.StatusCreated) })

			w := postWithKey(r, "/records", tc.key)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["request_id"] == "" {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_LookupMissAndHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	done := map[string]bool{"k-9": true}

	var gotActor int64
	var gotNow time.Time
	lookup := func(_ context.Context, actorID int64, key string, now time.Time) (bool, error) {
		gotActor, gotNow = actorID, now
		return done[key], nil
	}

	var replay, bypass bool
	r := gin.New()
	r.Use(withActor(9), IdempotencyValidator(IdempotencyOptions{Now: func() time.Time { return fixedNow }}, lookup))
	r.POST("/records", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		replay, bypass = IsReplay(c), IsRateBypass(c)
		c.String(http.StatusCreated, key)
	})

	w := postWithKey(r, "/records", "k-1")
	if w.Code != http.StatusCreated || w.Body.String() != "k-1" || replay || bypass {
		t.Fatalf("miss: code=%d body=%q replay=%v bypass=%v", w.Code, w.Body.String(), replay, bypass)
	}
	if gotActor != 9 || !gotNow.Equal(fixedNow) {
		t.Fatalf("lookup args actor=%d now=%v", gotActor, gotNow)
	}

	postWithKey(r, "/records", "k-9")
	if !replay || !bypass {
		t.Fatalf("hit: replay=%v bypass=%v", replay, bypass)
	}
}

func TestIdempotencyValidator_LookupErrorProceeds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(withActor(2), IdempotencyValidator(IdempotencyOptions{}, func(context.Context, int64, string, time.Time) (bool, error) {
		return false, errors.New("db down")
	}))
	r.POST("/records", func(c *gin.Context) {
		if IsReplay(c) {
			t.Fatal("failed lookup must not mark a replay")
		}
		c.Status(http.StatusCreated)
	})

	if w := postWithKey(r, "/records", "k-2"); w.Code != http.StatusCreated {
		t.Fatalf("got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") {
		t.Fatalf("expected a warn line, got %q", buf.String())
	}
}

func TestIdempotencyValidator_NoActorSkipsLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(context.Context, int64, string, time.Time) (bool, error) {
		t.Fatal("lookup without an actor")
		return false, nil
	}))
	r.POST("/records", func(c *gin.Context) { c.Status(http.StatusCreated) })
	if w := postWithKey(r, "/records", "k-3"); w.Code != http.StatusCreated {
		t.Fatalf("got %d", w.Code)
	}
}
