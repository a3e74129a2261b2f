// Package ingest validates and parses uploaded CSV documents. Nothing is
// persisted: each upload is parsed, returned and discarded.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/classdata/internal/apperr"
	"github.com/JonMunkholm/classdata/internal/tabular"
)

// DefaultMaxSize is the upload limit when none is configured (5 MiB).
const DefaultMaxSize int64 = 5 << 20

// Messages returned to clients for rejected uploads.
const (
	MsgNoFilePart = "No file part in request"
	MsgNoFilename = "No selected file"
	MsgNotCSV     = "Only CSV files are allowed"
)

// ParseError is a document that could not be read as CSV.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Result is a parsed upload.
type Result struct {
	ID       uuid.UUID
	Filename string
	Columns  []string
	Records  []tabular.Record
}

// Validate checks a filename before any parsing is attempted.
func Validate(filename string) error {
	if filename == "" {
		return apperr.Validation(apperr.CodeNoFilename, MsgNoFilename)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return apperr.Validation(apperr.CodeWrongFileType, MsgNotCSV)
	}
	return nil
}

// NoFilePart is the error for a multipart request without a file field.
func NoFilePart() error {
	return apperr.Validation(apperr.CodeNoFilePart, MsgNoFilePart)
}

// Parse validates filename then reads r as a CSV document, keeping the
// header cells as uploaded. Parse failures
// are returned as an internal error wrapping *ParseError.
func Parse(filename string, r io.Reader) (*Result, error) {
	if err := Validate(filename); err != nil {
		return nil, err
	}

	t, err := tabular.ParseVerbatim(r)
	if err != nil {
		return nil, apperr.Internal(apperr.CodeParseFailure, &ParseError{Filename: filename, Err: err})
	}

	return &Result{
		ID:       uuid.New(),
		Filename: filename,
		Columns:  t.ColumnNames(),
		Records:  t.Records(t.Rows()),
	}, nil
}

// IsParseError reports whether err came from a malformed document.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// String is a short description for logs.
func (r *Result) String() string {
	return fmt.Sprintf("upload %s (%s): %d columns, %d rows", r.ID, r.Filename, len(r.Columns), len(r.Records))
}
