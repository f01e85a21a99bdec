// Package httputil provides HTTP response helpers and shared middleware.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// JSON writes a raw JSON response without envelope.
// Use Success for enveloped responses.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Success writes {"success": true, "data": ...}.
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// SuccessMessage writes {"success": true, "message": ..., "data": ...}.
// A nil data is omitted from the body.
func SuccessMessage(w http.ResponseWriter, status int, message string, data interface{}) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Paginated writes a 200 response carrying a page of data and its pagination block.
func Paginated(w http.ResponseWriter, data interface{}, pagination Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &pagination})
}

// Error writes {"success": false, "message": ...}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// NotFound answers requests that matched no route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers requests whose path matched but method did not.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
