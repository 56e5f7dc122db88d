package httputil

import (
	"errors"
	"net/http"

	"github.com/clinicadm/clinic-api/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError maps a domain error to an HTTP response using provided
// mappings. Unmapped errors are logged and surface as an opaque 500 so
// internal details never leak to the caller.
func HandleError(w http.ResponseWriter, r *http.Request, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, r, m.Status, msg)
			return
		}
	}
	ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
	Error(w, r, http.StatusInternalServerError, "internal error")
}
