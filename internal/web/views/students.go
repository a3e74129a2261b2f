// Package views holds the HTML components served by the web layer. The
// components are written in .templ files; run `templ generate` after
// editing them.
package views

import "github.com/JonMunkholm/classdata/internal/tabular"

// StudentsPage is the data behind the paginated students view.
type StudentsPage struct {
	Columns    []string
	Rows       []tabular.Record
	Page       int
	Limit      int
	TotalPages int
	TotalItems int
	PrevURL    string // empty when there is no previous page
	NextURL    string // empty when there is no next page
	Error      string // shown instead of the table when set
}
