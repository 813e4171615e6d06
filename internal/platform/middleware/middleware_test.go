package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Fatal("expected a generated request id in context")
		}
		if got := w.Header().Get(RequestIDHeader); got != seen {
			t.Fatalf("expected response header %q to match context id %q", got, seen)
		}
	})

	t.Run("reuses inbound id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "req-123")
		h.ServeHTTP(httptest.NewRecorder(), r)

		if seen != "req-123" {
			t.Fatalf("expected inbound id to be reused, got %q", seen)
		}
	})
}

func TestClientMetadata(t *testing.T) {
	extract := func(r *http.Request) (ip, ua string) {
		h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ip = GetClientIP(req.Context())
			ua = GetUserAgent(req.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), r)
		return ip, ua
	}

	t.Run("prefers first X-Forwarded-For entry", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		ip, _ := extract(r)
		if ip != "203.0.113.9" {
			t.Fatalf("expected first forwarded ip, got %q", ip)
		}
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.4")
		ip, _ := extract(r)
		if ip != "198.51.100.4" {
			t.Fatalf("expected real-ip header value, got %q", ip)
		}
	})

	t.Run("strips port and brackets from RemoteAddr", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "[::1]:52042"
		ip, _ := extract(r)
		if ip != "::1" {
			t.Fatalf("expected bare IPv6 address, got %q", ip)
		}
	})

	t.Run("captures user agent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("User-Agent", "test-agent/1.0")
		_, ua := extract(r)
		if ua != "test-agent/1.0" {
			t.Fatalf("expected user agent, got %q", ua)
		}
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "internal_error" {
		t.Fatalf("expected internal_error envelope, got %q", body["error"])
	}
	if _, ok := body["error_description"]; ok {
		t.Fatal("expected panic detail to be suppressed")
	}
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(50*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok {
		t.Fatal("expected a context deadline")
	}
	if time.Until(deadline) > 50*time.Millisecond {
		t.Fatalf("deadline too far out: %v", time.Until(deadline))
	}
}

func TestLoggerPassesResponseThrough(t *testing.T) {
	h := Logger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", w.Code)
	}
	if w.Body.String() != "short and stout" {
		t.Fatalf("expected body to pass through, got %q", w.Body.String())
	}
}

func TestWithClientMetadata(t *testing.T) {
	ctx := WithClientMetadata(context.Background(), "192.0.2.1", "cli/2.0")
	if GetClientIP(ctx) != "192.0.2.1" {
		t.Fatalf("expected injected ip, got %q", GetClientIP(ctx))
	}
	if GetUserAgent(ctx) != "cli/2.0" {
		t.Fatalf("expected injected user agent, got %q", GetUserAgent(ctx))
	}
}
