package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bissquit/notification-registry/internal/pkg/ctxlog"
	"github.com/bissquit/notification-registry/internal/pkg/metrics"
	"github.com/bissquit/notification-registry/internal/pkg/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case originsSet["*"]:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && originsSet[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware sets response headers that harden browsers
// against sniffing, framing and referrer leaks.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'self'")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware rejects clients that exceeded their allowance with 429.
// Clients are identified by remote IP, so it must run after middleware.RealIP.
// Limiter failures let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				ctxlog.FromContext(r.Context()).Warn("rate limiter unavailable", "client_ip", ip, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				metrics.RateLimitedRequests.Inc()
				ctxlog.FromContext(r.Context()).Debug("rate limit exceeded", "client_ip", ip)
				Error(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RecovererMiddleware turns a handler panic into a 500 envelope. Nothing is
// written when the handler had already started its response.
func RecovererMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			ctxlog.FromContext(r.Context()).Error("panic recovered",
				"panic", rvr,
				"stack", string(debug.Stack()),
			)
			if ww.Status() == 0 {
				Error(ww, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// TimeoutMiddleware bounds the request context. A handler that returns after
// the deadline without writing gets a 504 envelope.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && ww.Status() == 0 {
				Error(ww, http.StatusGatewayTimeout, "Request timed out")
			}
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
