package catalog

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Fixtures is the reference data inserted by Seed.
type Fixtures struct {
	Courses   []Course   `yaml:"courses"`
	Resources []Resource `yaml:"resources"`
}

// DefaultFixtures returns the embedded reference data.
func DefaultFixtures() (Fixtures, error) {
	return ParseFixtures(seedYAML)
}

// ParseFixtures decodes YAML fixtures. Unknown keys and empty required
// fields are errors.
func ParseFixtures(data []byte) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}

	for i, c := range fx.Courses {
		if c.Subject == "" || c.Level == "" || c.Topic == "" {
			return Fixtures{}, fmt.Errorf("course %d: subject, level and topic are required", i)
		}
	}
	for i, r := range fx.Resources {
		if r.Category == "" || r.Title == "" || r.URL == "" {
			return Fixtures{}, fmt.Errorf("resource %d: category, title and url are required", i)
		}
	}
	return fx, nil
}

// Seed inserts the embedded fixtures into every empty table.
func (s *Store) Seed(ctx context.Context) (map[string]int, error) {
	fx, err := DefaultFixtures()
	if err != nil {
		return nil, err
	}
	return s.SeedWith(ctx, fx)
}

// SeedWith inserts fx into each table that currently has no rows. A table
// that already holds data is left untouched, so repeated calls never
// duplicate rows. The returned map holds the rows inserted per table.
func (s *Store) SeedWith(ctx context.Context, fx Fixtures) (inserted map[string]int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	inserted = map[string]int{TableCourses: 0, TableResources: 0}

	courses := make([][]any, len(fx.Courses))
	for i, c := range fx.Courses {
		courses[i] = []any{c.Subject, c.Level, c.Topic, c.Definition, c.Equation, c.Question, c.DiagramTitle}
	}
	if inserted[TableCourses], err = s.seedTable(ctx, tx, TableCourses, courseColumns[1:], courses); err != nil {
		return nil, err
	}

	resources := make([][]any, len(fx.Resources))
	for i, r := range fx.Resources {
		resources[i] = []any{r.Category, r.Title, r.Description, r.URL}
	}
	if inserted[TableResources], err = s.seedTable(ctx, tx, TableResources, resourceColumns[1:], resources); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}

func (s *Store) seedTable(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int, error) {
	n, err := count(ctx, tx, table)
	if err != nil {
		return 0, err
	}
	if n > 0 || len(rows) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, s.insertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}
	return len(rows), nil
}

func (s *Store) insertSQL(table string, columns []string) string {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = s.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(quoteColumns(columns), ", "),
		strings.Join(marks, ", "))
}
