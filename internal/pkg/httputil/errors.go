package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/notification-registry/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// If no mapping matches, logs the error and responds 500 with fallback,
// so storage details never reach the caller.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping, fallback string) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		ctxlog.FromContext(ctx).Warn("request timed out", "error", err)
		Error(w, http.StatusGatewayTimeout, "Request timed out")
		return
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	if fallback == "" {
		fallback = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, fallback)
}
