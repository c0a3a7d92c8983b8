package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowEnforcesBurst(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("client-a") {
			t.Fatalf("Expected request %d within burst to be allowed", i+1)
		}
	}
	if l.Allow("client-a") {
		t.Error("Expected request over burst to be denied")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("client-a") {
		t.Fatal("Expected first request for client-a to be allowed")
	}
	if l.Allow("client-a") {
		t.Error("Expected second request for client-a to be denied")
	}
	if !l.Allow("client-b") {
		t.Error("Expected client-b to have its own bucket")
	}
}

func TestCleanupDropsIdleClients(t *testing.T) {
	l := NewLimiter(1, 1)
	l.Allow("client-a")
	l.Allow("client-b")

	if removed := l.Cleanup(time.Hour); removed != 0 {
		t.Errorf("Expected no fresh clients removed, got %d", removed)
	}
	if removed := l.Cleanup(0); removed != 2 {
		t.Errorf("Expected both idle clients removed, got %d", removed)
	}
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	l := NewLimiter(1, 1)
	handler := l.Middleware(IPKeyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/v1/invoke", nil)
	req.RemoteAddr = "10.0.0.1:52311"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over limit, got %d", rec.Code)
	}
}

func TestIPKeyFunc(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{"remote addr with port", "192.168.1.5:40312", "", "192.168.1.5"},
		{"remote addr without port", "192.168.1.5", "", "192.168.1.5"},
		{"single forwarded entry", "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain keeps client", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := IPKeyFunc(req); got != tt.expected {
				t.Errorf("Expected key %q, got %q", tt.expected, got)
			}
		})
	}
}
