package catalog

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // registers the "sqlite" database/sql driver
)

// Dialect captures the SQL differences between the supported backends.
type Dialect struct {
	Name string

	driver   string
	numbered bool   // $1, $2 placeholders instead of ?
	like     string // case-insensitive pattern operator
	idColumn string // auto-increment primary key definition
}

var (
	// SQLite is the embedded default. LIKE is case-insensitive for ASCII.
	SQLite = Dialect{
		Name:     "sqlite",
		driver:   "sqlite",
		like:     "LIKE",
		idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT",
	}

	// Postgres runs through pgx's database/sql adapter.
	Postgres = Dialect{
		Name:     "postgres",
		driver:   "pgx",
		numbered: true,
		like:     "ILIKE",
		idColumn: "SERIAL PRIMARY KEY",
	}
)

// DialectFor resolves a DB_DRIVER value.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q (use sqlite or postgres)", name)
	}
}

// Placeholder returns the bind marker for the n-th argument (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// quoteIdentifier quotes a SQL identifier. Both dialects accept double quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
