package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
		},
		{
			name:        "unauthorized is generic",
			err:         Unauthorized(),
			wantCode:    CodeUnauthorized,
			wantMessage: "Unauthorized",
		},
		{
			name:        "validation keeps message",
			err:         Validation(CodeInvalidParam, "min_grade must be a number, got %q", "abc"),
			wantCode:    CodeInvalidParam,
			wantMessage: `min_grade must be a number, got "abc"`,
		},
		{
			name:        "wrapped classified error",
			err:         fmt.Errorf("handler: %w", Validation(CodeWrongFileType, "Only CSV files are allowed")),
			wantCode:    CodeWrongFileType,
			wantMessage: "Only CSV files are allowed",
		},
		{
			name:        "internal keeps underlying message",
			err:         Internal(CodeParseFailure, errors.New("record on line 3: wrong number of fields")),
			wantCode:    CodeParseFailure,
			wantMessage: "record on line 3: wrong number of fields",
		},
		{
			name:        "sqlite error pattern",
			err:         errors.New("SQL logic error: no such table: courses (1)"),
			wantCode:    CodeStoreFailure,
			wantMessage: "SQL logic error: no such table: courses (1)",
		},
		{
			name:        "unknown error",
			err:         errors.New("something odd"),
			wantCode:    CodeUnknown,
			wantMessage: "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{Unauthorized(), KindUnauthorized},
		{Validation(CodeNoFilePart, "No file part in request"), KindValidation},
		{TooLarge(10), KindTooLarge},
		{Unavailable(CodeUploadsBusy, errors.New("busy")), KindUnavailable},
		{RateLimited(), KindRateLimited},
		{fmt.Errorf("wrapped: %w", &Error{Kind: KindNotFound, Code: CodeOutOfRange}), KindNotFound},
		{errors.New("plain"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestInternal_Unwraps(t *testing.T) {
	cause := errors.New("disk gone")
	err := Internal(CodeStoreFailure, cause)
	if !errors.Is(err, cause) {
		t.Error("Internal error should unwrap to its cause")
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := Write(rec, http.StatusUnauthorized, Unauthorized()); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got, want := rec.Body.String(), `{"error":"Unauthorized","code":"AUTH001"}`+"\n"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}
