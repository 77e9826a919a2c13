// Package pagination provides limit/offset paging shared by list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a parsed, clamped paging request.
type Page struct {
	Limit  int
	Offset int
}

// FromRequest reads limit/offset query parameters, clamping them into range.
// Malformed values fall back to defaults rather than failing the request.
func FromRequest(r *http.Request) Page {
	p := Page{Limit: DefaultLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Offset = v
		}
	}
	return p
}

// Response wraps a page of items with totals so clients can build paging UI.
type Response[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewResponse builds a Response, normalizing a nil slice to empty so JSON
// always carries an array.
func NewResponse[T any](items []T, total int, p Page) Response[T] {
	if items == nil {
		items = []T{}
	}
	return Response[T]{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}
}
