package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
)

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil), httptest.NewRecorder())

	h := RequestTimeout(time.Second)(func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected a deadline on the request context")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_MapsDeadlineTo504(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil), httptest.NewRecorder())

	h := RequestTimeout(10 * time.Millisecond)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})

	appErr, ok := apperror.As(h(c))
	if !ok {
		t.Fatal("expected *apperror.Error")
	}
	if appErr.Status != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", appErr.Status)
	}
}

func TestRequestTimeout_SkipsPrefixes(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil), httptest.NewRecorder())

	h := RequestTimeout(time.Millisecond, "/api/v1/documents")(func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("did not expect a deadline on a skipped path")
		}
		return context.Canceled
	})
	if err := h(c); err != context.Canceled {
		t.Fatalf("expected error to pass through, got %v", err)
	}
}
