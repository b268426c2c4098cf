package pagination

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ErrInvalidPage is the sentinel for out-of-range or malformed page requests.
var ErrInvalidPage = apperr.Validation("Invalid page number.")

// InvalidPage returns ErrInvalidPage carrying total_pages in the response body.
func InvalidPage(totalPages int) error {
	return ErrInvalidPage.WithField("total_pages", totalPages)
}

// Params holds the requested page and page size.
type Params struct {
	Page    int
	PerPage int
}

// Offset is the number of rows skipped before the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromContext parses page and per_page. Absent values take the defaults;
// values that are not positive integers are rejected. per_page is capped at
// MaxPerPage.
func FromContext(c echo.Context) (Params, error) {
	p := Params{Page: DefaultPage, PerPage: DefaultPerPage}

	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, ErrInvalidPage
		}
		p.Page = n
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, apperr.Validation("per_page must be a positive integer")
		}
		if n > MaxPerPage {
			n = MaxPerPage
		}
		p.PerPage = n
	}
	return p, nil
}

// TotalPages is ceil(total/perPage).
func TotalPages(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Check validates the requested page against the row count. An empty
// collection accepts any page and yields an empty result.
func (p Params) Check(total int) error {
	if total == 0 {
		return nil
	}
	if tp := TotalPages(total, p.PerPage); p.Page > tp {
		return InvalidPage(tp)
	}
	return nil
}

// Links are the navigation URLs of a page. Absent neighbours are null.
type Links struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Meta describes the position of a page within the whole listing.
type Meta struct {
	Total       int   `json:"total"`
	Count       int   `json:"count"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Links       Links `json:"links"`
}

// Page is the list response envelope.
type Page[T any] struct {
	Pagination Meta `json:"pagination"`
	Data       []T  `json:"data"`
}

// NewPage builds the envelope. basePath is the resource path without the
// /api prefix (e.g. "/appointments"); filters are echoed into the links.
func NewPage[T any](data []T, total int, p Params, basePath string, filters map[string]string) *Page[T] {
	if data == nil {
		data = []T{}
	}
	tp := TotalPages(total, p.PerPage)

	var links Links
	if p.Page < tp {
		next := Link(basePath, p.Page+1, p.PerPage, filters)
		links.Next = &next
	}
	if p.Page > 1 {
		prev := Link(basePath, p.Page-1, p.PerPage, filters)
		links.Previous = &prev
	}

	return &Page[T]{
		Pagination: Meta{
			Total:       total,
			Count:       len(data),
			PerPage:     p.PerPage,
			CurrentPage: p.Page,
			TotalPages:  tp,
			Links:       links,
		},
		Data: data,
	}
}

// Link renders "<base>?page=N&per_page=M" followed by the non-empty filters
// in key order.
func Link(basePath string, page, perPage int, filters map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s?page=%d&per_page=%d", basePath, page, perPage)

	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("&")
		b.WriteString(url.QueryEscape(k))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(filters[k]))
	}
	return b.String()
}
