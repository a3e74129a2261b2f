package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrMissingData is returned by Load when a data file does not exist.
	ErrMissingData = errors.New("missing data file")

	// ErrNoColumns is returned when a document has no header row.
	ErrNoColumns = errors.New("no columns to parse from file")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and parses a CSV file. The table is named after the file's base
// name without extension.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingData, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return t, nil
}

// Parse reads a CSV document with a header row into a Table.
//
// Header names are normalized with NormalizeHeader. Column kinds are inferred
// from all non-empty cells; empty cells become nil. A row whose field count
// differs from the header is an error.
func Parse(r io.Reader) (*Table, error) {
	return parse(r, normalizedNames)
}

// ParseVerbatim is Parse without header normalization: column names are the
// header cells as written. A blank header becomes "Unnamed: N" and a repeated
// one gains a ".N" suffix, so every column keeps a distinct key.
func ParseVerbatim(r io.Reader) (*Table, error) {
	return parse(r, verbatimNames)
}

func parse(r io.Reader, names func([]string) []string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, err
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		raw = append(raw, rec)
	}

	cols := names(header)
	columns := make([]Column, len(cols))
	for i, name := range cols {
		columns[i] = Column{Name: name, Kind: inferKind(raw, i)}
	}

	rows := make([]Row, len(raw))
	for r, rec := range raw {
		row := make(Row, len(columns))
		for c, col := range columns {
			row[c] = convert(rec[c], col.Kind)
		}
		rows[r] = row
	}

	return New("", columns, rows)
}

func normalizedNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = NormalizeHeader(h)
		if names[i] == "" {
			names[i] = fmt.Sprintf("unnamed_%d", i)
		}
	}
	return names
}

func verbatimNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// NormalizeHeader trims a header cell, lower-cases it, and joins inner
// whitespace with underscores: " Coffee Type " becomes "coffee_type".
func NormalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

func inferKind(raw [][]string, col int) Kind {
	kind := KindInt
	seen := false
	for _, rec := range raw {
		cell := strings.TrimSpace(rec[col])
		if cell == "" {
			continue
		}
		seen = true
		if kind == KindInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
				continue
			}
			kind = KindFloat
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return KindText
		}
	}
	if !seen {
		return KindText
	}
	return kind
}

// convert turns a raw cell into a typed value. The kind was inferred over the
// whole column, so the numeric parses cannot fail here.
func convert(cell string, kind Kind) any {
	if kind == KindText {
		if cell == "" {
			return nil
		}
		return cell
	}
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	if kind == KindInt {
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	}
	v, _ := strconv.ParseFloat(cell, 64)
	return v
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
			continue
		}
		buf.WriteRune(r)
		data = data[size:]
	}
	return buf.Bytes()
}
