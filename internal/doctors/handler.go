package doctors

import (
	"encoding/json"
	"net/http"

	"github.com/clinicadm/clinic-api/internal/pkg/httputil"
	"github.com/clinicadm/clinic-api/internal/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the doctors module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new doctors handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterReadRoutes registers the read-only doctor routes. Callers gate
// them behind the admin and doctor roles.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/doctors", h.List)
	r.Get("/doctors/{id}", h.Get)
	r.Get("/doctors/crm/{crm}", h.GetByCRM)
}

// RegisterWriteRoutes registers the mutating doctor routes. Callers gate
// them behind the admin role.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/doctors", h.Create)
	r.Put("/doctors/{id}", h.Update)
	r.Delete("/doctors/{id}", h.Delete)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrDoctorNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailInUse, Status: http.StatusConflict},
	{Error: ErrCRMInUse, Status: http.StatusConflict},
}

// List handles GET /doctors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := httputil.ListParams(r, "name")

	var filter Filter
	if v := r.URL.Query().Get("specialty"); v != "" {
		filter.Specialty = &v
	}

	result, total, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, pagination.New(result, total, params.Page, params.Size))
}

// Get handles GET /doctors/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doctor, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, doctor)
}

// GetByCRM handles GET /doctors/crm/{crm}.
func (h *Handler) GetByCRM(w http.ResponseWriter, r *http.Request) {
	crm := chi.URLParam(r, "crm")

	doctor, err := h.service.GetByCRM(r.Context(), crm)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, doctor)
}

// CreateDoctorRequest represents the request body for registering a doctor.
type CreateDoctorRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=150"`
	Email     string `json:"email" validate:"required,email"`
	CRM       string `json:"crm" validate:"required,min=4,max=20"`
	Specialty string `json:"specialty" validate:"required,min=1,max=100"`
}

// Create handles POST /doctors.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	doctor, err := h.service.Create(r.Context(), CreateInput{
		Name:      req.Name,
		Email:     req.Email,
		CRM:       req.CRM,
		Specialty: req.Specialty,
	})
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, doctor)
}

// UpdateDoctorRequest represents the merge-patch body for updating a
// doctor. Omitted fields keep their stored values.
type UpdateDoctorRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
	CRM       *string `json:"crm" validate:"omitempty,min=4,max=20"`
	Specialty *string `json:"specialty" validate:"omitempty,min=1,max=100"`
}

// Update handles PUT /doctors/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	doctor, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:      req.Name,
		Email:     req.Email,
		CRM:       req.CRM,
		Specialty: req.Specialty,
	})
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, doctor)
}

// Delete handles DELETE /doctors/{id}.
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
