package query

import (
	"net/url"

	"github.com/JonMunkholm/classdata/internal/params"
)

// StudentFilter holds the optional student filters from a request. Nil or
// empty fields do not constrain the result.
type StudentFilter struct {
	Name     string
	ID       *int64
	MinGrade *float64
	MaxGrade *float64
}

// ParseStudentFilter reads name, id, min_grade and max_grade. A numeric
// parameter that does not parse is a validation error.
func ParseStudentFilter(q url.Values) (StudentFilter, error) {
	f := StudentFilter{Name: q.Get("name")}

	var err error
	if f.ID, err = params.Int(q, "id"); err != nil {
		return StudentFilter{}, err
	}
	if f.MinGrade, err = params.Float(q, "min_grade"); err != nil {
		return StudentFilter{}, err
	}
	if f.MaxGrade, err = params.Float(q, "max_grade"); err != nil {
		return StudentFilter{}, err
	}
	return f, nil
}

// Criteria converts the filter into criteria over the students table.
func (f StudentFilter) Criteria() []Criterion {
	var cs []Criterion
	if f.Name != "" {
		cs = append(cs, FoldEquals{Column: "name", Value: f.Name})
	}
	if f.ID != nil {
		cs = append(cs, IntEquals{Column: "id", Value: *f.ID})
	}
	if f.MinGrade != nil {
		cs = append(cs, Min{Column: "grade", Value: *f.MinGrade})
	}
	if f.MaxGrade != nil {
		cs = append(cs, Max{Column: "grade", Value: *f.MaxGrade})
	}
	return cs
}

// CoffeeCriteria filters coffee sales by exact coffee_type.
func CoffeeCriteria(q url.Values) []Criterion {
	if t := q.Get("coffee_type"); t != "" {
		return []Criterion{Equals{Column: "coffee_type", Value: t}}
	}
	return nil
}

type countRequest struct {
	Count int `param:"count" validate:"gte=0"`
}

// ParseCount reads the count parameter for top-N queries. It must be a
// non-negative integer; def applies when it is absent.
func ParseCount(q url.Values, def int) (int, error) {
	n, err := params.IntDefault(q, "count", def)
	if err != nil {
		return 0, err
	}
	if err := params.Struct(countRequest{Count: n}); err != nil {
		return 0, err
	}
	return n, nil
}
