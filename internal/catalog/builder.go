package catalog

import (
	"fmt"
	"strings"
)

// SelectBuilder assembles a parameterized SELECT over one table.
//
// The statement always starts from WHERE 1=1 so clauses can be appended
// unconditionally. Every value is a bound argument; only identifiers chosen
// by the caller reach the SQL text, and those are quoted.
type SelectBuilder struct {
	dialect    Dialect
	table      string
	columns    []string
	conditions []string
	args       []any
	order      []string
}

// NewSelect starts a SELECT of columns from table.
func NewSelect(d Dialect, table string, columns ...string) *SelectBuilder {
	return &SelectBuilder{dialect: d, table: table, columns: columns}
}

// nextPlaceholder reserves the next argument slot.
func (b *SelectBuilder) nextPlaceholder(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Where adds an exact-match condition. Empty values are skipped.
func (b *SelectBuilder) Where(column, value string) *SelectBuilder {
	if value == "" {
		return b
	}
	b.conditions = append(b.conditions,
		fmt.Sprintf("%s = %s", quoteIdentifier(column), b.nextPlaceholder(value)))
	return b
}

// likeEscaper makes LIKE metacharacters in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search adds one OR group matching term as a substring of any column,
// ignoring case. An empty term is skipped; % and _ in term are literal.
func (b *SelectBuilder) Search(term string, columns ...string) *SelectBuilder {
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf(`%s %s %s ESCAPE '\'`, quoteIdentifier(col), b.dialect.like, b.nextPlaceholder(pattern))
	}
	b.conditions = append(b.conditions, "("+strings.Join(parts, " OR ")+")")
	return b
}

// OrderBy sets the ascending sort columns.
func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.order = columns
	return b
}

// Build returns the SQL text and its arguments.
func (b *SelectBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(quoteColumns(b.columns), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdentifier(b.table))
	sb.WriteString(" WHERE 1=1")
	for _, c := range b.conditions {
		sb.WriteString(" AND ")
		sb.WriteString(c)
	}
	if len(b.order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(quoteColumns(b.order), ", "))
	}
	return sb.String(), b.args
}

func quoteColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdentifier(c)
	}
	return out
}
