package tabular

import (
	"errors"
	"fmt"
	"sort"
)

// Dataset names served by the API.
const (
	Students = "students"
	Coffee   = "coffee"
)

// ErrMissingColumn is returned when a dataset lacks a column it requires.
var ErrMissingColumn = errors.New("missing required column")

// Spec describes a flat-file dataset and the columns it must provide.
type Spec struct {
	Name     string
	Path     string
	Required []Column
}

// StudentsSpec is the students dataset: an integer id, a text name and a
// numeric grade, plus any other columns the file carries.
func StudentsSpec(path string) Spec {
	return Spec{
		Name: Students,
		Path: path,
		Required: []Column{
			{Name: "id", Kind: KindInt},
			{Name: "name", Kind: KindText},
			{Name: "grade", Kind: KindFloat},
		},
	}
}

// CoffeeSpec is the coffee sales dataset, keyed by coffee_type.
func CoffeeSpec(path string) Spec {
	return Spec{
		Name:     Coffee,
		Path:     path,
		Required: []Column{{Name: "coffee_type", Kind: KindText}},
	}
}

// Store is the read-only set of in-memory tables loaded at startup.
type Store struct {
	tables map[string]*Table
}

// Open loads every spec. Any missing file or column aborts with an error
// naming the offending path.
func Open(specs ...Spec) (*Store, error) {
	tables := make(map[string]*Table, len(specs))
	for _, spec := range specs {
		t, err := Load(spec.Path)
		if err != nil {
			return nil, err
		}
		t.name = spec.Name
		if err := Check(t, spec.Required); err != nil {
			return nil, fmt.Errorf("%s (%s): %w", spec.Name, spec.Path, err)
		}
		tables[spec.Name] = t
	}
	return &Store{tables: tables}, nil
}

// NewStore wraps already-built tables, keyed by name. Used with fixtures.
func NewStore(tables ...*Table) *Store {
	m := make(map[string]*Table, len(tables))
	for _, t := range tables {
		m[t.Name()] = t
	}
	return &Store{tables: m}
}

// Check verifies that t has each required column with a compatible kind.
// A KindFloat requirement accepts any numeric column; KindText accepts any.
func Check(t *Table, required []Column) error {
	for _, want := range required {
		got, ok := t.Column(want.Name)
		if !ok {
			return fmt.Errorf("%w %q", ErrMissingColumn, want.Name)
		}
		switch want.Kind {
		case KindInt:
			if got.Kind != KindInt {
				return fmt.Errorf("column %q must be int, got %s", want.Name, got.Kind)
			}
		case KindFloat:
			if !got.Kind.Numeric() {
				return fmt.Errorf("column %q must be numeric, got %s", want.Name, got.Kind)
			}
		}
	}
	return nil
}

// Table returns a dataset by name.
func (s *Store) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the loaded dataset names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
