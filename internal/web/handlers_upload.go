package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/classdata/internal/apperr"
	"github.com/JonMunkholm/classdata/internal/ingest"
	"github.com/JonMunkholm/classdata/internal/logging"
)

// handleUploadStudents parses an uploaded CSV and echoes its rows as JSON.
// Nothing is stored.
func (s *Server) handleUploadStudents(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if isTooLarge(err) {
			respondError(w, r, apperr.TooLarge(maxSize))
			return
		}
		respondError(w, r, ingest.NoFilePart())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part named "file" with an empty filename is parsed as a plain
		// form value rather than a file.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			respondError(w, r, ingest.Validate(""))
			return
		}
		respondError(w, r, ingest.NoFilePart())
		return
	}
	defer file.Close()

	if err := s.uploads.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.uploads.Release()

	res, err := ingest.Parse(header.Filename, file)
	if err != nil {
		if ingest.IsParseError(err) {
			logging.FromContext(r.Context()).Warn("upload is not valid csv",
				"filename", header.Filename,
				"size", header.Size,
			)
		}
		respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "upload_id", res.ID.String()).Info("upload parsed", "upload", res.String())
	w.Header().Set("X-Upload-ID", res.ID.String())
	writeJSON(w, r, http.StatusOK, res.Records)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
