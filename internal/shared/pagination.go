package shared

import "math"

// Pagination contains metadata for paginated listings. Page is one-based.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the zero-based index of the first item on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether another page follows.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}
