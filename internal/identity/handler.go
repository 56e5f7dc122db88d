package identity

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/pkg/httputil"
	"github.com/clinicadm/clinic-api/internal/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers routes that do not require authentication.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

// RegisterRoutes registers user management routes. The caller is
// responsible for gating them behind the admin role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/email/{email}", h.GetByEmail)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/role", h.ChangeRole)
		r.Patch("/{id}/password", h.ChangePassword)
		r.Delete("/{id}", h.Delete)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrUserNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailExists, Status: http.StatusConflict},
	{Error: ErrInvalidRole, Status: http.StatusBadRequest},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized},
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token. The token is also
// exposed through the Authorization response header for clients that
// read it from there.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	httputil.JSON(w, http.StatusOK, LoginResponse{Token: token})
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := httputil.ListParams(r, "name")

	var filter Filter
	if v := r.URL.Query().Get("role"); v != "" {
		role := domain.Role(strings.ToUpper(v))
		if !role.IsValid() {
			httputil.Error(w, r, http.StatusBadRequest, "invalid role filter")
			return
		}
		filter.Role = &role
	}

	users, total, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, pagination.New(users, total, params.Page, params.Size))
}

// Get handles GET /users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// GetByEmail handles GET /users/email/{email}.
func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN DOCTOR PATIENT"`
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	user, err := h.service.Create(r.Context(), CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, user)
}

// UpdateUserRequest represents the merge-patch body for updating a user.
// Omitted fields keep their stored values.
type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=150"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// Update handles PUT /users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// ChangeRoleRequest represents the body for changing a user's role.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ChangeRole handles PATCH /users/{id}/role.
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	user, err := h.service.ChangeRole(r.Context(), id, domain.Role(req.Role))
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// ChangePasswordRequest represents the body for changing a password.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// ChangePassword handles PATCH /users/{id}/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	user, err := h.service.ChangePassword(r.Context(), id, req.Password)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID extracts and validates the {id} path parameter.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}
