// Package listing provides shared helpers for paginated, sortable list queries.
package listing

import "strings"

// Sort directions accepted from callers. Anything that is not "desc"
// (case-insensitive) sorts ascending.
const (
	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

// Params carries the pagination and sorting parameters of a list query.
// Page is zero-based; Size is clamped by the handler boundary.
type Params struct {
	Page      int
	Size      int
	Sort      string
	Direction string
	Text      string
}

// Offset returns the row offset for the query.
func (p Params) Offset() int {
	return p.Page * p.Size
}

// OrderBy resolves the caller-supplied sort field against a fixed
// allowlist of field-to-column mappings. Unknown fields fall back to
// the default column instead of erroring, so the contract stays stable
// when the API shape changes and no caller can inject column names.
func OrderBy(allowed map[string]string, field, direction, defaultColumn string) string {
	column, ok := allowed[field]
	if !ok {
		column = defaultColumn
	}
	return column + " " + ParseDirection(direction)
}

// ParseDirection normalizes a sort direction, defaulting to ascending.
func ParseDirection(direction string) string {
	if strings.EqualFold(direction, "desc") {
		return DirectionDesc
	}
	return DirectionAsc
}
