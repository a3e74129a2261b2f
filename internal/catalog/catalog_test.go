package catalog

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "db", "catalog.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if s.Dialect().Name != SQLite.Name {
		t.Fatalf("Dialect() = %q, want sqlite", s.Dialect().Name)
	}

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func TestSelectBuilder_SQLite(t *testing.T) {
	query, args := NewSelect(SQLite, "resources", "id", "title").
		Where("category", "Video").
		Where("level", "").
		Search("alg", "title", "description").
		OrderBy("category", "title", "id").
		Build()

	want := `SELECT "id", "title" FROM "resources" WHERE 1=1 AND "category" = ? AND ("title" LIKE ? ESCAPE '\' OR "description" LIKE ? ESCAPE '\') ORDER BY "category", "title", "id"`
	if query != want {
		t.Errorf("query =\n%s\nwant\n%s", query, want)
	}
	wantArgs := []any{"Video", "%alg%", "%alg%"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestSelectBuilder_Postgres(t *testing.T) {
	query, args := NewSelect(Postgres, "resources", "id").
		Where("category", "Video").
		Search("x", "title", "description").
		Build()

	want := `SELECT "id" FROM "resources" WHERE 1=1 AND "category" = $1 AND ("title" ILIKE $2 ESCAPE '\' OR "description" ILIKE $3 ESCAPE '\')`
	if query != want {
		t.Errorf("query =\n%s\nwant\n%s", query, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3", args)
	}
}

func TestSelectBuilder_SearchEscapesWildcards(t *testing.T) {
	_, args := NewSelect(SQLite, "resources", "id").
		Search(`50%_off\`, "title").
		Build()

	if want := `%50\%\_off\\%`; len(args) != 1 || args[0] != want {
		t.Errorf("args = %v, want [%s]", args, want)
	}
}

func TestSelectBuilder_NoFilters(t *testing.T) {
	query, args := NewSelect(SQLite, "courses", "id").Build()
	if query != `SELECT "id" FROM "courses" WHERE 1=1` {
		t.Errorf("query = %s", query)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestSelectBuilder_ValuesNeverInterpolated(t *testing.T) {
	hostile := "x' OR '1'='1"
	query, args := NewSelect(SQLite, "courses", "id").
		Where("subject", hostile).
		Search(hostile, "topic").
		Build()

	text := strings.ReplaceAll(query, `ESCAPE '\'`, "")
	if strings.Contains(query, hostile) || strings.Contains(text, "'") {
		t.Errorf("value leaked into SQL text: %s", query)
	}
	if len(args) != 2 || args[0] != hostile {
		t.Errorf("args = %v", args)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "sqlite", false},
		{"SQLite", "sqlite", false},
		{"postgres", "postgres", false},
		{"pgx", "postgres", false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		d, err := DialectFor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("DialectFor(%q) error = %v", tt.in, err)
			continue
		}
		if d.Name != tt.want {
			t.Errorf("DialectFor(%q) = %s, want %s", tt.in, d.Name, tt.want)
		}
	}
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	fx, err := DefaultFixtures()
	if err != nil {
		t.Fatalf("DefaultFixtures() error = %v", err)
	}

	first, err := s.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if first[TableCourses] != len(fx.Courses) || first[TableResources] != len(fx.Resources) {
		t.Errorf("first seed inserted %v", first)
	}

	second, err := s.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if second[TableCourses] != 0 || second[TableResources] != 0 {
		t.Errorf("second seed inserted %v, want none", second)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[TableCourses] != int64(len(fx.Courses)) || counts[TableResources] != int64(len(fx.Resources)) {
		t.Errorf("Counts() = %v after two seeds", counts)
	}
}

func TestSeed_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	for i := 0; i < 2; i++ {
		s, err := Open(ctx, Config{Driver: "sqlite", URL: path})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Migrate(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Seed(ctx); err != nil {
			t.Fatal(err)
		}
		counts, err := s.Counts(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if counts[TableCourses] != 8 {
			t.Errorf("run %d: courses = %d, want 8", i, counts[TableCourses])
		}
		_ = s.Close()
	}
}

func TestSeed_OnlyEmptyTables(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.SeedWith(ctx, Fixtures{Courses: []Course{{Subject: "Art", Level: "Beginner", Topic: "Color"}}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[TableCourses] != 0 {
		t.Errorf("populated courses table was reseeded with %d rows", got[TableCourses])
	}
	if got[TableResources] == 0 {
		t.Error("empty resources table was not seeded")
	}
}

func TestCourses(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if _, err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	all, err := s.Courses(ctx, CourseFilter{})
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("Courses() returned %d, want 8", len(all))
	}
	for i := 1; i < len(all); i++ {
		a, b := all[i-1], all[i]
		if a.Subject > b.Subject || (a.Subject == b.Subject && a.Level > b.Level) ||
			(a.Subject == b.Subject && a.Level == b.Level && a.ID > b.ID) {
			t.Errorf("order broken at %d: %+v before %+v", i, a, b)
		}
	}

	math, err := s.Courses(ctx, CourseFilter{Subject: "Math", Level: "Beginner"})
	if err != nil {
		t.Fatal(err)
	}
	if len(math) != 2 {
		t.Fatalf("Math/Beginner returned %d, want 2", len(math))
	}
	for _, c := range math {
		if c.Subject != "Math" || c.Level != "Beginner" || c.ID == 0 || c.Equation == "" {
			t.Errorf("unexpected course %+v", c)
		}
	}

	none, err := s.Courses(ctx, CourseFilter{Subject: "Latin"})
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("unknown subject = %v, want empty slice", none)
	}
}

func TestResources(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if _, err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter ResourceFilter
		titles []string
	}{
		{"category", ResourceFilter{Category: "Tool"}, []string{"Graphing Calculator", "Unit Converter"}},
		{"search title ignores case", ResourceFilter{Search: "ALGEBRA"}, []string{"Intro to Algebra"}},
		{"search description", ResourceFilter{Search: "acceleration"}, []string{"Newton's Laws Explained", "Kinematics Drills"}},
		{"category and search", ResourceFilter{Category: "Worksheet", Search: "acceleration"}, []string{"Kinematics Drills"}},
		{"no match", ResourceFilter{Search: "zzz"}, []string{}},
		{"percent is literal", ResourceFilter{Search: "%"}, []string{}},
		{"underscore is literal", ResourceFilter{Search: "_"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resources(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Resources() error = %v", err)
			}
			titles := make([]string, len(got))
			for i, r := range got {
				titles[i] = r.Title
			}
			if !reflect.DeepEqual(titles, tt.titles) {
				t.Errorf("titles = %v, want %v", titles, tt.titles)
			}
		})
	}
}

func TestResources_SearchMatchesWildcardCharacters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SeedWith(ctx, Fixtures{Resources: []Resource{
		{Category: "Article", Title: "Give 100% Effort", URL: "https://example.org/a"},
		{Category: "Article", Title: "Give 1000 Effort", URL: "https://example.org/b"},
		{Category: "Tool", Title: "snake_case helper", URL: "https://example.org/c"},
		{Category: "Tool", Title: "snakeXcase helper", URL: "https://example.org/d"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	for term, want := range map[string]string{"100%": "Give 100% Effort", "e_c": "snake_case helper"} {
		got, err := s.Resources(ctx, ResourceFilter{Search: term})
		if err != nil {
			t.Fatalf("Resources(%q) error = %v", term, err)
		}
		if len(got) != 1 || got[0].Title != want {
			t.Errorf("Resources(%q) = %v, want only %q", term, got, want)
		}
	}
}

func TestParseFixtures_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "courses:\n  - subject: Math\n    level: B\n    topic: T\n    colour: red\n"},
		{"missing topic", "courses:\n  - subject: Math\n    level: B\n"},
		{"resource without url", "resources:\n  - category: Video\n    title: T\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFixtures([]byte(tt.doc)); err == nil {
				t.Error("ParseFixtures() expected error")
			}
		})
	}
}
