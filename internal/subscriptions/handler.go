package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bissquit/notification-registry/internal/domain"
	"github.com/bissquit/notification-registry/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrFieldsRequired, Status: http.StatusBadRequest, Message: "All fields are required"},
	{Error: ErrFieldTooLong, Status: http.StatusBadRequest, Message: "One or more fields are too long"},
	{Error: ErrConsentRequired, Status: http.StatusBadRequest, Message: "You must accept to receive notifications"},
	{Error: ErrInvalidEmail, Status: http.StatusBadRequest, Message: "Please provide a valid email address"},
	{Error: ErrInvalidPhone, Status: http.StatusBadRequest, Message: "Please provide a valid phone number"},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest, Message: "Status must be 'active' or 'unsubscribed'"},
	{Error: ErrInvalidPagination, Status: http.StatusBadRequest, Message: "Page and limit must be positive integers"},
	{Error: ErrEmailSubscribed, Status: http.StatusConflict, Message: "This email is already subscribed"},
	{Error: ErrPhoneSubscribed, Status: http.StatusConflict, Message: "This phone number is already subscribed"},
	{Error: ErrSubscriptionNotFound, Status: http.StatusNotFound, Message: "Subscription not found"},
}

// Handler handles HTTP requests for the subscriptions module.
type Handler struct {
	service *Service
	now     func() time.Time
}

// NewHandler creates a new subscriptions handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

// RegisterRoutes registers subscription routes. The router is expected to be
// mounted at /api/notifications.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/subscribe", h.Subscribe)
	r.Get("/all", h.ListSubscriptions)
	r.Get("/email/{email}", h.GetSubscriptionByEmail)
	r.Put("/unsubscribe/{email}", h.Unsubscribe)
	r.Get("/stats", h.GetStats)
	r.Delete("/{id}", h.DeleteSubscription)
}

// SubscribeRequest represents request body for creating a subscription.
type SubscribeRequest struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Email               string `json:"email"`
	PhoneNumber         string `json:"phoneNumber"`
	AcceptNotifications bool   `json:"acceptNotifications"`
	AcceptPromotions    *bool  `json:"acceptPromotions"`
}

// SubscribeResponse is the part of a new subscription echoed to the caller.
type SubscribeResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	httputil.SuccessMessage(w, http.StatusOK, "Server is running", map[string]string{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Subscribe handles POST /subscribe.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	sub, err := h.service.Subscribe(r.Context(), SubscribeInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Failed to subscribe. Please try again later.")
		return
	}

	httputil.SuccessMessage(w, http.StatusCreated, "Successfully subscribed to notifications", SubscribeResponse{
		ID:        sub.ID,
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Email:     sub.Email,
	})
}

// ListSubscriptions handles GET /all?page=&limit=&status=.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := positiveIntParam(query, "page")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "")
		return
	}

	limit, err := positiveIntParam(query, "limit")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "")
		return
	}

	result, err := h.service.ListSubscriptions(r.Context(), ListInput{
		Page:   page,
		Limit:  limit,
		Status: domain.SubscriptionStatus(query.Get("status")),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Failed to fetch subscriptions")
		return
	}

	httputil.Paginated(w, result.Subscriptions, httputil.Pagination{
		Total: result.Total,
		Page:  result.Page,
		Pages: result.Pages,
	})
}

// GetSubscriptionByEmail handles GET /email/{email}.
func (h *Handler) GetSubscriptionByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "")
		return
	}

	sub, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Failed to fetch subscription")
		return
	}

	httputil.Success(w, http.StatusOK, sub)
}

// Unsubscribe handles PUT /unsubscribe/{email}.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "")
		return
	}

	sub, err := h.service.Unsubscribe(r.Context(), email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Failed to unsubscribe")
		return
	}

	httputil.SuccessMessage(w, http.StatusOK, "Successfully unsubscribed", sub)
}

// DeleteSubscription handles DELETE /{id}.
func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSubscription(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Failed to delete subscription")
		return
	}

	httputil.SuccessMessage(w, http.StatusOK, "Subscription deleted successfully", nil)
}

// GetStats handles GET /stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Failed to fetch statistics")
		return
	}

	httputil.Success(w, http.StatusOK, stats)
}

// positiveIntParam parses an optional positive integer query parameter.
// An absent parameter yields 0 so the service applies its default.
func positiveIntParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, ErrInvalidPagination
	}
	return v, nil
}

// emailParam returns the decoded {email} path segment. chi matches on
// r.URL.RawPath when it is set, in which case the segment is still encoded.
// Otherwise it was taken from the already decoded r.URL.Path.
func emailParam(r *http.Request) (string, error) {
	email := chi.URLParam(r, "email")
	if r.URL.RawPath == "" {
		return email, nil
	}
	email, err := url.PathUnescape(email)
	if err != nil {
		return "", ErrSubscriptionNotFound
	}
	return email, nil
}
