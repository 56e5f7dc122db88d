package patients

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/identity"
	"github.com/clinicadm/clinic-api/internal/pkg/httputil"
	"github.com/clinicadm/clinic-api/internal/pkg/optional"
	"github.com/clinicadm/clinic-api/internal/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// birthDateLayout is the wire format for patient birth dates.
const birthDateLayout = "2006-01-02"

// Handler handles HTTP requests for the patients module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new patients handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers patient routes. Callers gate them behind the
// admin and doctor roles.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/document/{document}", h.GetByDocument)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/create-user", h.CreateUser)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrPatientNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailInUse, Status: http.StatusConflict},
	{Error: ErrDocumentInUse, Status: http.StatusConflict},
	{Error: ErrInvalidGender, Status: http.StatusBadRequest},
	{Error: ErrAlreadyLinked, Status: http.StatusConflict},
	{Error: identity.ErrEmailExists, Status: http.StatusConflict},
}

// List handles GET /patients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := httputil.ListParams(r, "name")

	var filter Filter
	if v := r.URL.Query().Get("gender"); v != "" {
		gender := domain.Gender(strings.ToUpper(v))
		if !gender.IsValid() {
			httputil.Error(w, r, http.StatusBadRequest, "invalid gender filter")
			return
		}
		filter.Gender = &gender
	}

	result, total, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, pagination.New(result, total, params.Page, params.Size))
}

// Get handles GET /patients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	patient, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, patient)
}

// GetByDocument handles GET /patients/document/{document}.
func (h *Handler) GetByDocument(w http.ResponseWriter, r *http.Request) {
	document := chi.URLParam(r, "document")

	patient, err := h.service.GetByDocument(r.Context(), document)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, patient)
}

// CreatePatientRequest represents the request body for registering a patient.
type CreatePatientRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=150"`
	Email     string  `json:"email" validate:"required,email"`
	Document  string  `json:"document" validate:"required,min=3,max=30"`
	BirthDate string  `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Gender    string  `json:"gender" validate:"required,oneof=FEMALE MALE OTHER"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

// Create handles POST /patients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid birth date")
		return
	}

	patient, err := h.service.Create(r.Context(), CreateInput{
		Name:      req.Name,
		Email:     req.Email,
		Document:  req.Document,
		BirthDate: birthDate,
		Gender:    domain.Gender(req.Gender),
		Phone:     req.Phone,
		Notes:     req.Notes,
	})
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, patient)
}

// UpdatePatientRequest represents the merge-patch body for updating a
// patient. Omitted fields keep their stored values; an explicit null
// clears phone or notes.
type UpdatePatientRequest struct {
	Name      *string                `json:"name" validate:"omitempty,min=1,max=150"`
	Email     *string                `json:"email" validate:"omitempty,email"`
	Document  *string                `json:"document" validate:"omitempty,min=3,max=30"`
	BirthDate *string                `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Gender    *string                `json:"gender" validate:"omitempty,oneof=FEMALE MALE OTHER"`
	Phone     optional.Field[string] `json:"phone"`
	Notes     optional.Field[string] `json:"notes"`
}

// Update handles PUT /patients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, r, err)
		return
	}

	input := UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Document: req.Document,
		Phone:    req.Phone,
		Notes:    req.Notes,
	}
	if req.BirthDate != nil {
		birthDate, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			httputil.Error(w, r, http.StatusBadRequest, "invalid birth date")
			return
		}
		input.BirthDate = &birthDate
	}
	if req.Gender != nil {
		gender := domain.Gender(*req.Gender)
		input.Gender = &gender
	}

	patient, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, patient)
}

// Delete handles DELETE /patients/{id}.
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

// CreateUser handles POST /patients/{id}/create-user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.service.CreateUserFromPatient(r.Context(), id)
	if err != nil {
		httputil.HandleError(w, r, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, user)
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
