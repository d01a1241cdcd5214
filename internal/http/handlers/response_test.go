package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/unarchive-tracker/internal/http/middleware"
)

func envelopeRouter(logs *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	if logs != nil {
		lg := zerolog.New(logs)
		r.Use(func(c *gin.Context) {
			c.Set("logger", &lg)
			c.Next()
		})
	}
	return r
}

func TestFail_ServerErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	r := envelopeRouter(&buf)
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "storage unavailable")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "rid-500")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "storage unavailable" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), `"code":"internal_error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestFail_ClientErrorIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	r := envelopeRouter(&buf)
	r.GET("/records/9", func(c *gin.Context) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/records/9", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID == "" || resp.RequestID != w.Header().Get("X-Request-ID") {
		t.Fatalf("request id %q not echoed (header %q)", resp.RequestID, w.Header().Get("X-Request-ID"))
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not log, got: %s", buf.String())
	}
}

func TestInvalidField_CarriesDetails(t *testing.T) {
	r := envelopeRouter(nil)
	r.GET("/records", func(c *gin.Context) {
		invalidField(c, "page_size", "must be a positive integer")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/records", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Code != ErrCodeValidation || len(resp.Details) != 1 {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if d := resp.Details[0]; d.Field != "page_size" || d.Message != "must be a positive integer" {
		t.Fatalf("detail %+v", d)
	}
}

func TestSuccessHelpers(t *testing.T) {
	r := envelopeRouter(nil)
	r.POST("/records", func(c *gin.Context) {
		ok(c, http.StatusCreated, gin.H{"id": 7, "status": "PENDENTE"})
	})
	r.DELETE("/records/7", func(c *gin.Context) {
		noContent(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["status"] != "PENDENTE" || int(body["id"].(float64)) != 7 {
		t.Fatalf("unexpected body: %#v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/records/7", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}
