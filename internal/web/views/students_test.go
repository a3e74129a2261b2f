package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/classdata/internal/tabular"
)

func TestStudents_RendersRowsAndLinks(t *testing.T) {
	tbl, err := tabular.Parse(strings.NewReader("id,name,grade\n1,<b>Alice</b>,88\n2,Bob,72.5\n"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err = Students(StudentsPage{
		Columns:    tbl.ColumnNames(),
		Rows:       tbl.Records(tbl.Rows()),
		Page:       2,
		Limit:      2,
		TotalPages: 3,
		TotalItems: 6,
		PrevURL:    "/students-view?page=1&limit=2",
		NextURL:    "/students-view?page=3&limit=2",
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<th>grade</th>",
		"<td>&lt;b&gt;Alice&lt;/b&gt;</td>",
		"<td>72.5</td>",
		`href="/students-view?page=1&amp;limit=2"`,
		`href="/students-view?page=3&amp;limit=2"`,
		"Page 2 of 3 (6 students)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(html, "<b>Alice") {
		t.Error("cell content was not escaped")
	}
}

func TestStudents_ErrorAndDisabledLinks(t *testing.T) {
	var buf bytes.Buffer
	err := Students(StudentsPage{Page: 9, TotalPages: 3, TotalItems: 12, Error: "Page number out of range"}).
		Render(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	html := buf.String()

	if !strings.Contains(html, `<p class="error">Page number out of range</p>`) {
		t.Error("error message not rendered")
	}
	if strings.Contains(html, "<table>") {
		t.Error("table rendered alongside error")
	}
	if strings.Count(html, `class="disabled"`) != 2 {
		t.Error("both links should be disabled")
	}
}

func TestStudents_WrapsInLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Students(StudentsPage{Page: 1, TotalPages: 1}).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()

	if !strings.HasPrefix(html, "<!doctype html>") {
		t.Errorf("page does not start with a doctype: %.40q", html)
	}
	body := strings.Index(html, "<body>")
	heading := strings.Index(html, "<h1>Students</h1>")
	end := strings.Index(html, "</body>")
	if body < 0 || heading < body || end < heading {
		t.Error("page content is not inside the layout body")
	}
	if !strings.Contains(html, "<title>Students</title>") {
		t.Error("missing title")
	}
}

func TestStudents_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := Students(StudentsPage{}).Render(ctx, &buf); err == nil {
		t.Error("Render() with cancelled context should fail")
	}
}
