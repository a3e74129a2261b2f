// Package apperr defines the request error taxonomy shared by every layer.
//
// # Error Codes Reference
//
// Each error carries a stable code that callers can quote when reporting a
// problem:
//
//	AUTH001 - Unauthorized: missing or incorrect shared secret (401)
//
//	VAL001  - Invalid parameter: a query parameter failed to parse or
//	          violated its range (400)
//
//	FILE001 - No file part: multipart request without a "file" field (400)
//	FILE002 - No selected file: the file part has an empty filename (400)
//	FILE003 - Wrong extension: only .csv uploads are accepted (400)
//	FILE004 - File too large: request body exceeds the upload limit (413)
//	FILE005 - Uploads busy: no upload slot freed up in time (503)
//
//	RATE001 - Rate limited: too many requests from one client (429)
//
//	PAGE001 - Page out of range: requested page outside [1, total_pages] (404)
//
//	CSV001  - Parse failure: an uploaded document is not valid CSV (500)
//	DB001   - Store failure: the relational store returned an error (500)
//
//	ERR000  - Unknown: any error not classified above (500)
//
// Internal errors keep the underlying message; the caller decides whether
// to surface it.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindValidation
	KindTooLarge
	KindNotFound
	KindUnavailable
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindTooLarge:
		return "too_large"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Codes for support reference.
const (
	CodeUnauthorized  = "AUTH001"
	CodeInvalidParam  = "VAL001"
	CodeNoFilePart    = "FILE001"
	CodeNoFilename    = "FILE002"
	CodeWrongFileType = "FILE003"
	CodeFileTooLarge  = "FILE004"
	CodeUploadsBusy   = "FILE005"
	CodeRateLimited   = "RATE001"
	CodeOutOfRange    = "PAGE001"
	CodeParseFailure  = "CSV001"
	CodeStoreFailure  = "DB001"
	CodeUnknown       = "ERR000"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthorized is the single, generic rejection used by the access gate.
// It never says why the key was rejected.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: "Unauthorized"}
}

// RateLimited rejects a client that exceeded its request budget.
func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Code: CodeRateLimited, Message: "rate limit exceeded"}
}

// Validation builds a client error with a specific message.
func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// TooLarge reports a request body over the configured limit.
func TooLarge(limit int64) *Error {
	return &Error{
		Kind:    KindTooLarge,
		Code:    CodeFileTooLarge,
		Message: fmt.Sprintf("file too large: limit is %d bytes", limit),
	}
}

// Unavailable reports a temporary capacity problem; the client may retry.
func Unavailable(code string, err error) *Error {
	return &Error{Kind: KindUnavailable, Code: code, Message: err.Error(), Err: err}
}

// Internal wraps err as a server-side failure, keeping its message.
func Internal(code string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, KindInternal when unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// UserMessage is what a client sees for an error.
type UserMessage struct {
	Message string
	Code    string
}

// technicalPatterns classify errors that did not originate as *Error.
// Matched case-insensitively with strings.Contains; first match wins.
var technicalPatterns = []struct {
	pattern string
	code    string
}{
	{"no such table", CodeStoreFailure},
	{"relation \"", CodeStoreFailure},
	{"sql:", CodeStoreFailure},
	{"database is locked", CodeStoreFailure},
	{"connection refused", CodeStoreFailure},
	{"wrong number of fields", CodeParseFailure},
	{"bare \" in non-quoted-field", CodeParseFailure},
	{"extraneous or missing \" in quoted-field", CodeParseFailure},
}

// MapError converts any error into a UserMessage. Classified errors keep
// their own code and message; others are matched against known technical
// patterns and fall back to ERR000. The message is always the error text.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ae *Error
	if errors.As(err, &ae) {
		return UserMessage{Message: ae.Error(), Code: ae.Code}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, p := range technicalPatterns {
		if strings.Contains(lower, p.pattern) {
			return UserMessage{Message: msg, Code: p.code}
		}
	}
	return UserMessage{Message: msg, Code: CodeUnknown}
}

// Response is the JSON body of every error response.
type Response struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Write sends err as a JSON error response. Layers without a logger, such as
// middleware, use it directly.
func Write(w http.ResponseWriter, status int, err error) error {
	msg := MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(Response{Error: msg.Message, Code: msg.Code})
}
