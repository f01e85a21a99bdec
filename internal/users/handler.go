package users

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/notification-registry/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrFieldsRequired, Status: http.StatusBadRequest, Message: "Missing required fields"},
	{Error: ErrFieldTooLong, Status: http.StatusBadRequest, Message: "One or more fields are too long"},
	{Error: ErrInvalidEmail, Status: http.StatusBadRequest, Message: "Please provide a valid email address"},
	{Error: ErrInvalidPhone, Status: http.StatusBadRequest, Message: "Please provide a valid phone number"},
	{Error: ErrUserExists, Status: http.StatusConflict, Message: "User already registered"},
}

// Handler handles HTTP requests for the users module.
type Handler struct {
	service *Service
}

// NewHandler creates a new users handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers user routes under /api/users.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// RegisterResponse carries the id of the created user.
type RegisterResponse struct {
	UserID string `json:"userId"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings, "Server error")
		return
	}

	httputil.SuccessMessage(w, http.StatusCreated, "User registered successfully", RegisterResponse{UserID: user.ID})
}
