package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://app.example.com"})(okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/notifications/subscribe", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()

	SecurityHeadersMiddleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "HSTS only over TLS")
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		limiter  *stubLimiter
		wantCode int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusOK},
		{"rejected", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter down fails open", &stubLimiter{err: errors.New("redis: connection refused")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/notifications/all", nil)
			req.RemoteAddr = "203.0.113.7:52100"
			rec := httptest.NewRecorder()

			RateLimitMiddleware(tt.limiter)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, []string{"203.0.113.7"}, tt.limiter.keys, "clients are keyed by IP without port")
		})
	}
}

func TestRecovererMiddleware(t *testing.T) {
	t.Run("panic before writing", func(t *testing.T) {
		h := RecovererMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil map")
		}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rec.Body.String())
	})

	t.Run("panic after writing", func(t *testing.T) {
		h := RecovererMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			Text(w, http.StatusOK, "partial")
			panic("late")
		}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "partial", rec.Body.String())
	})

	t.Run("abort handler is re-raised", func(t *testing.T) {
		h := RecovererMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("silent handler past deadline", func(t *testing.T) {
		h := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Request timed out"}`, rec.Body.String())
	})

	t.Run("handler within deadline", func(t *testing.T) {
		rec := httptest.NewRecorder()

		TimeoutMiddleware(time.Second)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
