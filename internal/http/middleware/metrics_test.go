package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndCollapsesUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/records/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.DELETE("/records/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/records/:id", "200"))
	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/records/:id", "204"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/records/1", nil),
		httptest.NewRequest(http.MethodGet, "/records/2", nil),
		httptest.NewRequest(http.MethodDelete, "/records/2", nil),
		httptest.NewRequest(http.MethodGet, "/nope/1", nil),
		httptest.NewRequest(http.MethodGet, "/nope/2", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/records/:id", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v, want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/records/:id", "204")); got != baseDel+1 {
		t.Fatalf("delete counter = %v, want %v", got, baseDel+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != base404+2 {
		t.Fatalf("unmatched counter = %v, want %v", got, base404+2)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("in-flight = %v, want 0", got)
	}
}

func TestRejectionsAreCounted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := testutil.ToFloat64(httpRejected.WithLabelValues(rejectUnauthenticated))

	r := actorRouter(ActorOptions{AllowHeaders: true})
	if w := get(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", w.Code)
	}
	if got := testutil.ToFloat64(httpRejected.WithLabelValues(rejectUnauthenticated)); got != base+1 {
		t.Fatalf("unauthenticated = %v, want %v", got, base+1)
	}
}
