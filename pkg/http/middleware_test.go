package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/txn2/moodchat/pkg/transcript"
)

func TestRequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen string
		handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = transcript.RequestID(r.Context())
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("expected generated uuid, got %q", seen)
		}
		if rr.Header().Get(RequestIDHeader) != seen {
			t.Errorf("response header = %q, want %q", rr.Header().Get(RequestIDHeader), seen)
		}
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		var seen string
		handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = transcript.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if seen != "abc-123" {
			t.Errorf("expected propagated id, got %q", seen)
		}
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		var seen string
		handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = transcript.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if len(seen) > maxRequestIDLength {
			t.Errorf("oversized id was kept")
		}
	})
}

func TestLogging_RecordsStatus(t *testing.T) {
	var inner *statusRecorder
	handler := Logging()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		inner = w.(*statusRecorder)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chat", http.NoBody))

	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTeapot)
	}
	if inner.status != http.StatusTeapot || inner.bytes != len("short and stout") {
		t.Errorf("recorder = %d/%d", inner.status, inner.bytes)
	}
}

func TestLogging_ImplicitOK(t *testing.T) {
	var inner *statusRecorder
	handler := Logging()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		inner = w.(*statusRecorder)
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	if inner.status != http.StatusOK {
		t.Errorf("status = %d, want 200", inner.status)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allow all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chat", http.NoBody)
		req.Header.Set("Origin", "https://example.com")
		rr := httptest.NewRecorder()
		CORS(nil)(next).ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("allow origin = %q, want *", got)
		}
	})

	t.Run("listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chat", http.NoBody)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		CORS([]string{"https://app.example.com/"})(next).ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("allow origin = %q", got)
		}
		if rr.Header().Get("Vary") != "Origin" {
			t.Errorf("expected Vary: Origin")
		}
	})

	t.Run("unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chat", http.NoBody)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"})(next).ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("unexpected allow origin %q", got)
		}
		if rr.Code != http.StatusOK {
			t.Errorf("request should still reach the handler, got %d", rr.Code)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		h := CORS(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

		req := httptest.NewRequest(http.MethodOptions, "/chat", http.NoBody)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rr.Code)
		}
		if called {
			t.Error("preflight reached the handler")
		}
	})
}

func TestRecover(t *testing.T) {
	handler := Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := "outer,inner,handler"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}
