// Package pagination builds page envelopes for list responses.
package pagination

// Page is the envelope returned by every list endpoint. Page is the
// zero-based page index requested by the caller.
type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Last          bool `json:"last"`
}

// New builds a page envelope from a slice of items and the total number
// of matching rows. An empty result set has zero pages and is last.
func New[T any](content []T, total, page, size int) Page[T] {
	if size < 1 {
		size = 1
	}
	if content == nil {
		content = make([]T, 0)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}

	last := true
	if totalPages > 0 {
		last = page >= totalPages-1
	}

	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          last,
	}
}
