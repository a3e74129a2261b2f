package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/classdata/internal/apperr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		filename string
		wantCode string
	}{
		{"students.csv", ""},
		{"STUDENTS.CSV", ""},
		{"archive.2024.csv", ""},
		{"", apperr.CodeNoFilename},
		{"students.txt", apperr.CodeWrongFileType},
		{"students.csv.exe", apperr.CodeWrongFileType},
		{"csv", apperr.CodeWrongFileType},
	}
	for _, tt := range tests {
		err := Validate(tt.filename)
		if tt.wantCode == "" {
			if err != nil {
				t.Errorf("Validate(%q) error = %v", tt.filename, err)
			}
			continue
		}
		if got := apperr.MapError(err).Code; got != tt.wantCode {
			t.Errorf("Validate(%q) code = %q, want %q", tt.filename, got, tt.wantCode)
		}
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("Validate(%q) kind = %s", tt.filename, apperr.KindOf(err))
		}
	}

	if err := Validate("x.txt"); err.Error() != MsgNotCSV {
		t.Errorf("message = %q, want %q", err.Error(), MsgNotCSV)
	}
}

// failReader fails the test if it is ever read.
type failReader struct{ t *testing.T }

func (r failReader) Read([]byte) (int, error) {
	r.t.Fatal("body read before filename was validated")
	return 0, nil
}

func TestParse_RejectsBeforeReading(t *testing.T) {
	_, err := Parse("grades.xlsx", failReader{t})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestParse_Success(t *testing.T) {
	doc := "id,name,grade\n1,Alice,88\n2,Bob,72\n3,Carla,95\n"

	res, err := Parse("students.csv", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Records) != 3 {
		t.Errorf("records = %d, want 3", len(res.Records))
	}
	if strings.Join(res.Columns, ",") != "id,name,grade" {
		t.Errorf("columns = %v", res.Columns)
	}
	if res.ID == uuid.Nil {
		t.Error("upload ID not assigned")
	}
	if v, _ := res.Records[1].Get("name"); v != "Bob" {
		t.Errorf("record 1 name = %v", v)
	}
	if got := res.String(); !strings.Contains(got, "students.csv") || !strings.Contains(got, "3 columns, 3 rows") {
		t.Errorf("String() = %q", got)
	}
}

func TestParse_RecordsKeepUploadedHeaders(t *testing.T) {
	res, err := Parse("s.csv", strings.NewReader("Student Name,Grade\nAlice,90\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := json.Marshal(res.Records)
	if err != nil {
		t.Fatal(err)
	}
	if want := `[{"Student Name":"Alice","Grade":90}]`; string(got) != want {
		t.Errorf("records = %s, want %s", got, want)
	}
}

func TestParse_MalformedIsInternal(t *testing.T) {
	_, err := Parse("students.csv", strings.NewReader("a,b\n1,2,3\n"))
	if err == nil {
		t.Fatal("Parse() expected error")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("kind = %s, want internal", apperr.KindOf(err))
	}
	if !IsParseError(err) {
		t.Errorf("error %v does not wrap *ParseError", err)
	}
	if msg := apperr.MapError(err); msg.Code != apperr.CodeParseFailure || !strings.Contains(msg.Message, "wrong number of fields") {
		t.Errorf("MapError = %+v", msg)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	_, err := Parse("empty.csv", strings.NewReader(""))
	if !IsParseError(err) {
		t.Fatalf("error = %v, want parse error", err)
	}
	if !strings.Contains(err.Error(), "no columns") {
		t.Errorf("message = %q", err.Error())
	}
}
