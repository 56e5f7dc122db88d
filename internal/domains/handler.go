// Package domains exposes the closed value sets the API accepts, so
// clients can render pickers without hardcoding them.
package domains

import (
	"net/http"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/clinicadm/clinic-api/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Entry pairs a machine code with its display label.
type Entry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var roles = []Entry{
	{Code: string(domain.RoleAdmin), Label: "Administrator"},
	{Code: string(domain.RoleDoctor), Label: "Doctor"},
	{Code: string(domain.RolePatient), Label: "Patient"},
}

var genders = []Entry{
	{Code: string(domain.GenderFemale), Label: "Female"},
	{Code: string(domain.GenderMale), Label: "Male"},
	{Code: string(domain.GenderOther), Label: "Other"},
}

// Handler serves the domain value directory.
type Handler struct{}

// NewHandler creates a new domains handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes registers the directory routes. They are readable by
// every authenticated role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/domains", func(r chi.Router) {
		r.Get("/roles", h.Roles)
		r.Get("/genders", h.Genders)
	})
}

// Roles handles GET /domains/roles.
func (h *Handler) Roles(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, roles)
}

// Genders handles GET /domains/genders.
func (h *Handler) Genders(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, genders)
}
