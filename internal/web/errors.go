package web

// errors.go maps handler errors to HTTP responses.
//
// Every error is logged with the request ID and its technical message, then
// written as {"error": ..., "code": ...} with the status for its kind. An
// out-of-range page also carries the collection totals.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/classdata/internal/apperr"
	"github.com/JonMunkholm/classdata/internal/logging"
	"github.com/JonMunkholm/classdata/internal/paginate"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse = apperr.Response

// outOfRangeResponse keeps total_students from the original wire contract.
type outOfRangeResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	TotalPages    int    `json:"total_pages"`
	TotalStudents int    `json:"total_students"`
}

// statusFor returns the HTTP status for an error kind.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the matching JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var oor *paginate.OutOfRangeError
	if errors.As(err, &oor) {
		logging.FromContext(r.Context()).Info("page out of range",
			"path", r.URL.Path,
			"page", oor.Page,
			"total_pages", oor.TotalPages,
		)
		writeJSON(w, r, http.StatusNotFound, outOfRangeResponse{
			Error:         oor.Error(),
			Code:          apperr.CodeOutOfRange,
			TotalPages:    oor.TotalPages,
			TotalStudents: oor.TotalItems,
		})
		return
	}

	msg := apperr.MapError(err)
	status := statusFor(apperr.KindOf(err))

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", msg.Code,
		)
	} else {
		logger.Warn("request rejected",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", msg.Code,
		)
	}

	writeJSON(w, r, status, ErrorResponse{Error: msg.Message, Code: msg.Code})
}

// writeJSON encodes v with the given status. Encoding errors are logged since
// the header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
