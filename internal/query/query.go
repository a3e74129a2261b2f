// Package query filters, ranks and aggregates in-memory tables.
//
// A Criterion binds to a table once (resolving its columns) and then tests
// rows. Distinct criteria combine with AND; the columns of a single Search
// combine with OR. A null cell never satisfies any criterion.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/classdata/internal/tabular"
)

// Criterion is one filter constraint over a table.
type Criterion interface {
	bind(t *tabular.Table) (predicate, error)
}

type predicate func(tabular.Row) bool

// IntEquals matches rows whose integer column equals Value.
type IntEquals struct {
	Column string
	Value  int64
}

func (c IntEquals) bind(t *tabular.Table) (predicate, error) {
	i, err := numericColumn(t, c.Column)
	if err != nil {
		return nil, err
	}
	return func(r tabular.Row) bool {
		switch v := r[i].(type) {
		case int64:
			return v == c.Value
		case float64:
			return v == float64(c.Value)
		}
		return false
	}, nil
}

// FoldEquals matches rows whose column equals Value, ignoring case.
type FoldEquals struct {
	Column string
	Value  string
}

func (c FoldEquals) bind(t *tabular.Table) (predicate, error) {
	i, err := column(t, c.Column)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(c.Value)
	return func(r tabular.Row) bool {
		if r[i] == nil {
			return false
		}
		return strings.ToLower(tabular.FormatValue(r[i])) == want
	}, nil
}

// Equals matches rows whose column equals Value exactly.
type Equals struct {
	Column string
	Value  string
}

func (c Equals) bind(t *tabular.Table) (predicate, error) {
	i, err := column(t, c.Column)
	if err != nil {
		return nil, err
	}
	return func(r tabular.Row) bool {
		if r[i] == nil {
			return false
		}
		return tabular.FormatValue(r[i]) == c.Value
	}, nil
}

// Min matches rows whose numeric column is >= Value.
type Min struct {
	Column string
	Value  float64
}

func (c Min) bind(t *tabular.Table) (predicate, error) {
	i, err := numericColumn(t, c.Column)
	if err != nil {
		return nil, err
	}
	return func(r tabular.Row) bool {
		v, ok := Number(r[i])
		return ok && v >= c.Value
	}, nil
}

// Max matches rows whose numeric column is <= Value.
type Max struct {
	Column string
	Value  float64
}

func (c Max) bind(t *tabular.Table) (predicate, error) {
	i, err := numericColumn(t, c.Column)
	if err != nil {
		return nil, err
	}
	return func(r tabular.Row) bool {
		v, ok := Number(r[i])
		return ok && v <= c.Value
	}, nil
}

// Search matches rows where any of Columns contains Term. Fold makes the
// comparison case-insensitive. An empty Term matches every row.
type Search struct {
	Columns []string
	Term    string
	Fold    bool
}

func (c Search) bind(t *tabular.Table) (predicate, error) {
	if len(c.Columns) == 0 {
		return nil, fmt.Errorf("search: no columns")
	}
	idx := make([]int, len(c.Columns))
	for n, name := range c.Columns {
		i, err := column(t, name)
		if err != nil {
			return nil, err
		}
		idx[n] = i
	}

	term := c.Term
	if c.Fold {
		term = strings.ToLower(term)
	}
	return func(r tabular.Row) bool {
		for _, i := range idx {
			if r[i] == nil {
				continue
			}
			s := tabular.FormatValue(r[i])
			if c.Fold {
				s = strings.ToLower(s)
			}
			if strings.Contains(s, term) {
				return true
			}
		}
		return false
	}, nil
}

// Apply returns the rows of t that satisfy every criterion, in table order.
// With no criteria it returns a copy of all rows.
func Apply(t *tabular.Table, criteria ...Criterion) ([]tabular.Row, error) {
	preds := make([]predicate, 0, len(criteria))
	for _, c := range criteria {
		p, err := c.bind(t)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", t.Name(), err)
		}
		preds = append(preds, p)
	}

	rows := t.Rows()
	if len(preds) == 0 {
		return rows, nil
	}

	out := make([]tabular.Row, 0, len(rows))
	for _, r := range rows {
		if matches(r, preds) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches(r tabular.Row, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// TopN returns the n rows with the highest values in a numeric column,
// highest first. Ties keep table order and null values sort last.
func TopN(t *tabular.Table, col string, n int) ([]tabular.Row, error) {
	if n < 0 {
		return nil, fmt.Errorf("top %s: negative count %d", col, n)
	}
	i, err := numericColumn(t, col)
	if err != nil {
		return nil, err
	}

	rows := t.Rows()
	sort.SliceStable(rows, func(a, b int) bool {
		va, oka := Number(rows[a][i])
		vb, okb := Number(rows[b][i])
		if oka != okb {
			return oka
		}
		return va > vb
	})
	if n < len(rows) {
		rows = rows[:n]
	}
	return rows, nil
}

// Mean is the arithmetic mean of the non-null values in a numeric column.
// ok is false when the column holds no values.
func Mean(t *tabular.Table, col string) (mean float64, ok bool, err error) {
	i, err := numericColumn(t, col)
	if err != nil {
		return 0, false, err
	}

	var sum float64
	var n int
	for _, r := range t.Rows() {
		if v, ok := Number(r[i]); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

// Round2 rounds x to two decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Number converts a numeric cell to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func column(t *tabular.Table, name string) (int, error) {
	i, ok := t.Index(name)
	if !ok {
		return 0, fmt.Errorf("%w %q", tabular.ErrMissingColumn, name)
	}
	return i, nil
}

func numericColumn(t *tabular.Table, name string) (int, error) {
	i, err := column(t, name)
	if err != nil {
		return 0, err
	}
	if c, _ := t.Column(name); !c.Kind.Numeric() {
		return 0, fmt.Errorf("column %q is %s, not numeric", name, c.Kind)
	}
	return i, nil
}
