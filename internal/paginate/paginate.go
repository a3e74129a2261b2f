// Package paginate slices ordered collections into numbered pages with
// navigation links.
package paginate

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/classdata/internal/params"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 5

// Request is a validated page request. Page may still be out of range for
// a given collection; only Paginate can tell.
type Request struct {
	Page  int `param:"page"`
	Limit int `param:"limit" validate:"gte=1"`
}

// ParseRequest reads page and limit. page defaults to 1 and limit to
// defaultLimit. An unparsable value or a limit below 1 is a validation
// error; a page below 1 is left for Paginate to reject as out of range.
func ParseRequest(q url.Values, defaultLimit int) (Request, error) {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}

	page, err := params.IntDefault(q, "page", 1)
	if err != nil {
		return Request{}, err
	}
	limit, err := params.IntDefault(q, "limit", defaultLimit)
	if err != nil {
		return Request{}, err
	}

	req := Request{Page: page, Limit: limit}
	if err := params.Struct(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// OutOfRangeError reports a page outside [1, TotalPages].
type OutOfRangeError struct {
	Page       int
	TotalPages int
	TotalItems int
}

func (e *OutOfRangeError) Error() string {
	return "Page number out of range"
}

// Page is one page of items plus navigation metadata.
type Page[T any] struct {
	Page          int     `json:"page"`
	Limit         int     `json:"limit"`
	TotalItems    int     `json:"total_items"`
	TotalStudents int     `json:"total_students"`
	TotalPages    int     `json:"total_pages"`
	HasNext       bool    `json:"has_next"`
	HasPrev       bool    `json:"has_prev"`
	NextURL       *string `json:"next_url"`
	PrevURL       *string `json:"prev_url"`
	Data          []T     `json:"data"`
	NextPageCount int     `json:"next_page_count"`
}

// TotalPages is ceil(items/limit) in integer arithmetic. It does not
// overflow for any positive limit.
func TotalPages(items, limit int) int {
	if limit < 1 || items < 1 {
		return 0
	}
	pages := items / limit
	if items%limit != 0 {
		pages++
	}
	return pages
}

// Paginate returns the requested page of items. base is the absolute or
// relative URL of the listing, without query string; adjacent page links
// are base?page=N&limit=L. An empty collection has zero pages, so every
// page is out of range.
func Paginate[T any](items []T, req Request, base string) (Page[T], error) {
	if req.Limit < 1 {
		return Page[T]{}, fmt.Errorf("paginate: limit %d must be positive", req.Limit)
	}

	total := len(items)
	pages := TotalPages(total, req.Limit)
	if req.Page < 1 || req.Page > pages {
		return Page[T]{}, &OutOfRangeError{Page: req.Page, TotalPages: pages, TotalItems: total}
	}

	start := (req.Page - 1) * req.Limit
	end := start + min(req.Limit, total-start)

	p := Page[T]{
		Page:          req.Page,
		Limit:         req.Limit,
		TotalItems:    total,
		TotalStudents: total,
		TotalPages:    pages,
		HasNext:       req.Page < pages,
		HasPrev:       req.Page > 1,
		Data:          items[start:end:end],
	}
	if p.HasNext {
		next := pageURL(base, req.Page+1, req.Limit)
		p.NextURL = &next
		p.NextPageCount = min(req.Limit, total-end)
	}
	if p.HasPrev {
		prev := pageURL(base, req.Page-1, req.Limit)
		p.PrevURL = &prev
	}
	return p, nil
}

func pageURL(base string, page, limit int) string {
	return base + "?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
}
