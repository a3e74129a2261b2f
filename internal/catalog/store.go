// Package catalog is the relational store for course and study-resource
// reference data.
//
// Two fixed tables, courses and resources, are created on Migrate and filled
// once from embedded fixtures by Seed. Reads go through SelectBuilder so
// request values are always bound arguments.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Table names.
const (
	TableCourses   = "courses"
	TableResources = "resources"
)

// Course is one course reference entry.
type Course struct {
	ID           int64  `json:"id" yaml:"-"`
	Subject      string `json:"subject" yaml:"subject"`
	Level        string `json:"level" yaml:"level"`
	Topic        string `json:"topic" yaml:"topic"`
	Definition   string `json:"definition" yaml:"definition"`
	Equation     string `json:"equation" yaml:"equation"`
	Question     string `json:"question" yaml:"question"`
	DiagramTitle string `json:"diagram_title" yaml:"diagram_title"`
}

// Resource is one study resource entry.
type Resource struct {
	ID          int64  `json:"id" yaml:"-"`
	Category    string `json:"category" yaml:"category"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
}

// Column order used by every read and insert; scan order must match.
var (
	courseColumns   = []string{"id", "subject", "level", "topic", "definition", "equation", "question", "diagram_title"}
	resourceColumns = []string{"id", "category", "title", "description", "url"}
)

// CourseFilter holds optional exact-match course filters.
type CourseFilter struct {
	Subject string
	Level   string
}

// ResourceFilter holds an optional category and a substring search over
// title and description.
type ResourceFilter struct {
	Category string
	Search   string
}

// Config selects and tunes the backend.
type Config struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Store wraps a database handle and its dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the configured backend and verifies the connection.
// For SQLite the parent directory of the database file is created.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, errors.New("catalog: database URL is empty")
	}

	if d.Name == SQLite.Name && !strings.HasPrefix(cfg.URL, "file:") && cfg.URL != ":memory:" {
		if dir := filepath.Dir(cfg.URL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(d.driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s database: %w", d.Name, err)
	}
	return &Store{db: db, dialect: d}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the backend dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS courses (
			id %s,
			subject TEXT NOT NULL,
			level TEXT NOT NULL,
			topic TEXT NOT NULL,
			definition TEXT NOT NULL,
			equation TEXT NOT NULL,
			question TEXT NOT NULL,
			diagram_title TEXT NOT NULL
		)`, s.dialect.idColumn),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resources (
			id %s,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			url TEXT NOT NULL
		)`, s.dialect.idColumn),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Counts returns the number of rows in each table.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, 2)
	for _, table := range []string{TableCourses, TableResources} {
		n, err := count(ctx, s.db, table)
		if err != nil {
			return nil, err
		}
		out[table] = n
	}
	return out, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func count(ctx context.Context, q queryer, table string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdentifier(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Courses lists courses matching f, ordered by subject, level, then id.
func (s *Store) Courses(ctx context.Context, f CourseFilter) ([]Course, error) {
	query, args := NewSelect(s.dialect, TableCourses, courseColumns...).
		Where("subject", f.Subject).
		Where("level", f.Level).
		OrderBy("subject", "level", "id").
		Build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	courses := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Subject, &c.Level, &c.Topic,
			&c.Definition, &c.Equation, &c.Question, &c.DiagramTitle); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read courses: %w", err)
	}
	return courses, nil
}

// Resources lists resources matching f, ordered by category, title, then id.
func (s *Store) Resources(ctx context.Context, f ResourceFilter) ([]Resource, error) {
	query, args := NewSelect(s.dialect, TableResources, resourceColumns...).
		Where("category", f.Category).
		Search(f.Search, "title", "description").
		OrderBy("category", "title", "id").
		Build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	resources := []Resource{}
	for rows.Next() {
		var r Resource
		if err := rows.Scan(&r.ID, &r.Category, &r.Title, &r.Description, &r.URL); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	return resources, nil
}
