package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if captured == "" {
			t.Error("expected a request ID in the context")
		}
		if got := rec.Header().Get(RequestIDHeader); got != captured {
			t.Errorf("header %q does not match context ID %q", got, captured)
		}
	})

	t.Run("propagates client-supplied ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if captured != "abc-123" {
			t.Errorf("expected propagated ID, got %q", captured)
		}
		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected echoed header, got %q", got)
		}
	})
}

func TestLoggingMiddlewareStatus(t *testing.T) {
	handler := LoggingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status to pass through, got %d", rec.Code)
	}
}
