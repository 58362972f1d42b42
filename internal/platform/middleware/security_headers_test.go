package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil), rec)

	if err := SecurityHeaders(false)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k, v := range apiHeaders {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s: expected %q, got %q", k, v, got)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("did not expect HSTS when disabled")
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	_ = SecurityHeaders(true)(okHandler)(c)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS header")
	}
}
