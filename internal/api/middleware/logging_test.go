package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// TestResponseWriter_CapturesStatusAndSize verifies that status and size are
// tracked without disturbing the response itself.
func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	var captured *responseWriter
	handler := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Errorf("expected body 'hello', got %q", rec.Body.String())
	}
	if captured.status != http.StatusCreated || captured.size != len("hello") {
		t.Errorf("wrapper recorded status=%d size=%d", captured.status, captured.size)
	}
}

// TestRequestLogging_PrincipalCarrier verifies that an auth layer running
// inside the logging middleware can report the resolved principal back to it.
func TestRequestLogging_PrincipalCarrier(t *testing.T) {
	var caller *principal
	handler := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setPrincipal(r.Context(), "user-1", models.PrincipalUser)
		p, ok := r.Context().Value(principalCarrierKey{}).(*principal)
		if !ok {
			t.Fatal("principal carrier missing from request context")
		}
		caller = p
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/boost", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if caller.id != "user-1" || caller.kind != models.PrincipalUser {
		t.Errorf("carrier = %+v, want user-1/USER", caller)
	}
}

// TestSetPrincipal_NoCarrier verifies setPrincipal is a safe no-op when the
// logging middleware is not in the chain.
func TestSetPrincipal_NoCarrier(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	// Must not panic.
	setPrincipal(req.Context(), "user-1", models.PrincipalUser)
}
