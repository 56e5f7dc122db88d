package httputil

import (
	"net/http"
	"strconv"

	"github.com/clinicadm/clinic-api/internal/pkg/listing"
)

// Pagination bounds applied at the boundary layer.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListParams parses pagination and sorting query parameters, clamping
// page to >= 0 and size to [1,100]. Sort falls back to defaultSort.
func ListParams(r *http.Request, defaultSort string) listing.Params {
	q := r.URL.Query()

	page := 0
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}

	size := DefaultPageSize
	if v, err := strconv.Atoi(q.Get("size")); err == nil {
		size = v
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	sort := q.Get("sort")
	if sort == "" {
		sort = defaultSort
	}

	direction := q.Get("direction")
	if direction == "" {
		direction = "asc"
	}

	return listing.Params{
		Page:      page,
		Size:      size,
		Sort:      sort,
		Direction: direction,
		Text:      q.Get("text"),
	}
}
