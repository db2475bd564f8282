package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1M", 1 << 20},
		{"10M", 10 << 20},
		{"15MB", 15 << 20},
		{"512K", 512 << 10},
		{"1G", 1 << 30},
		{"1024", 1024},
		{"", 1 << 20},
		{"invalid", 1 << 20},
		{"-5", 1 << 20},
	}

	for _, tt := range tests {
		if got := parseLimit(tt.input); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestBodyLimit_AllowsSmallBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/p1/form/sections/security",
		strings.NewReader(`{"fields":{"crimeConfirmation":"Não"}}`))
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := BodyLimit("1M", "10M")(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if len(b) == 0 {
			t.Error("expected non-empty body")
		}
		called = true
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}

func TestBodyLimit_RejectsByContentLength(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/p1", bytes.NewReader(make([]byte, 2048)))
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit("1K", "10M")(func(c echo.Context) error {
		t.Error("handler must not run")
		return nil
	})(c)
	if !apperr.Is(err, apperr.CodeTooLarge) {
		t.Fatalf("expected PAYLOAD_TOO_LARGE, got %v", err)
	}
	if !strings.Contains(apperr.UserMessage(err), "1KB") {
		t.Errorf("expected limit in message, got %q", apperr.UserMessage(err))
	}
}

func TestBodyLimit_RejectsWhileReading(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/p1", bytes.NewReader(make([]byte, 2048)))
	req.ContentLength = -1
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit("1K", "10M")(func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})(c)
	if !apperr.Is(err, apperr.CodeTooLarge) {
		t.Fatalf("expected PAYLOAD_TOO_LARGE, got %v", err)
	}
}

func TestBodyLimit_UploadLimitForDocuments(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/p1/documents", bytes.NewReader(make([]byte, 4096)))
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit("1K", "10K")(func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})(c)
	if err != nil {
		t.Fatalf("expected upload under upload limit to pass, got %v", err)
	}
}

func TestBodyLimit_NoBody(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil), httptest.NewRecorder())

	if err := BodyLimit("1", "1")(func(c echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
