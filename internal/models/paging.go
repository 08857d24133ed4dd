package models

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery is the shared list contract.
type PageQuery struct {
	PageNumber    int
	PageSize      int
	SortColumn    string
	SortDirection string
	SearchValue   string
}

// Normalize clamps page bounds and lowercases the sort direction.
func (q PageQuery) Normalize() PageQuery {
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.SortDirection = strings.ToLower(strings.TrimSpace(q.SortDirection))
	if q.SortDirection != "asc" && q.SortDirection != "desc" {
		q.SortDirection = ""
	}
	q.SearchValue = strings.TrimSpace(q.SearchValue)
	return q
}

// Offset is the number of rows to skip.
func (q PageQuery) Offset() int {
	return (q.PageNumber - 1) * q.PageSize
}

// PagedResult is the data payload of every list endpoint.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// NewPagedResult computes totalPages as ceil(total/pageSize).
func NewPagedResult[T any](items []T, total int, q PageQuery) PagedResult[T] {
	q = q.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + q.PageSize - 1) / q.PageSize
	}
	return PagedResult[T]{
		Items:      items,
		TotalPages: pages,
		TotalCount: total,
		PageNumber: q.PageNumber,
		PageSize:   q.PageSize,
	}
}
