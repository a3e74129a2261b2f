package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/classdata/internal/apperr"
	"github.com/JonMunkholm/classdata/internal/logging"
	"github.com/JonMunkholm/classdata/internal/paginate"
	"github.com/JonMunkholm/classdata/internal/query"
	"github.com/JonMunkholm/classdata/internal/tabular"
	"github.com/JonMunkholm/classdata/internal/web/views"
)

// ExportFilename names the CSV attachment of filtered students.
const ExportFilename = "filtered_students.csv"

// filteredStudents applies the name, id, min_grade and max_grade filters.
func (s *Server) filteredStudents(r *http.Request) ([]tabular.Row, error) {
	f, err := query.ParseStudentFilter(r.URL.Query())
	if err != nil {
		return nil, err
	}
	rows, err := query.Apply(s.students, f.Criteria()...)
	if err != nil {
		return nil, apperr.Internal(apperr.CodeUnknown, err)
	}
	return rows, nil
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	rows, err := s.filteredStudents(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.students.Records(rows))
}

func (s *Server) handleTopStudents(w http.ResponseWriter, r *http.Request) {
	n, err := query.ParseCount(r.URL.Query(), s.cfg.Pagination.DefaultTop)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows, err := query.TopN(s.students, "grade", n)
	if err != nil {
		respondError(w, r, apperr.Internal(apperr.CodeUnknown, err))
		return
	}
	writeJSON(w, r, http.StatusOK, s.students.Records(rows))
}

// AverageResponse carries the mean grade, null for an empty dataset.
type AverageResponse struct {
	AverageGrade *float64 `json:"average_grade"`
}

// handleAverageGrade ignores every filter parameter.
func (s *Server) handleAverageGrade(w http.ResponseWriter, r *http.Request) {
	mean, ok, err := query.Mean(s.students, "grade")
	if err != nil {
		respondError(w, r, apperr.Internal(apperr.CodeUnknown, err))
		return
	}
	var resp AverageResponse
	if ok {
		avg := query.Round2(mean)
		resp.AverageGrade = &avg
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleDownloadStudents streams the filtered students as a CSV attachment.
// An empty result is a header-only document.
func (s *Server) handleDownloadStudents(w http.ResponseWriter, r *http.Request) {
	rows, err := s.filteredStudents(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)

	if err := tabular.WriteCSV(w, s.students.ColumnNames(), rows); err != nil {
		// Headers are gone; all we can do is log.
		logging.FromContext(r.Context()).Error("csv export failed", "error", err, "rows", len(rows))
	}
}

func (s *Server) studentsPage(r *http.Request, base string) (paginate.Page[tabular.Record], error) {
	req, err := paginate.ParseRequest(r.URL.Query(), s.cfg.Pagination.DefaultLimit)
	if err != nil {
		return paginate.Page[tabular.Record]{}, err
	}
	return paginate.Paginate(s.students.Records(s.students.Rows()), req, base)
}

func (s *Server) handlePaginatedStudents(w http.ResponseWriter, r *http.Request) {
	page, err := s.studentsPage(r, requestBaseURL(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

// handleStudentsView renders the paginated students as HTML. Links are
// relative to the view itself.
func (s *Server) handleStudentsView(w http.ResponseWriter, r *http.Request) {
	view := views.StudentsPage{Columns: s.students.ColumnNames()}
	status := http.StatusOK

	page, err := s.studentsPage(r, r.URL.Path)
	var oor *paginate.OutOfRangeError
	switch {
	case err == nil:
		view.Rows = page.Data
		view.Page = page.Page
		view.Limit = page.Limit
		view.TotalPages = page.TotalPages
		view.TotalItems = page.TotalItems
		if page.PrevURL != nil {
			view.PrevURL = *page.PrevURL
		}
		if page.NextURL != nil {
			view.NextURL = *page.NextURL
		}
	case errors.As(err, &oor):
		status = http.StatusNotFound
		view.Error = oor.Error()
		view.Page = oor.Page
		view.TotalPages = oor.TotalPages
		view.TotalItems = oor.TotalItems
	default:
		status = statusFor(apperr.KindOf(err))
		view.Error = apperr.MapError(err).Message
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Students(view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render students view", "error", err)
	}
}

func (s *Server) handleCoffee(w http.ResponseWriter, r *http.Request) {
	rows, err := query.Apply(s.coffee, query.CoffeeCriteria(r.URL.Query())...)
	if err != nil {
		respondError(w, r, apperr.Internal(apperr.CodeUnknown, err))
		return
	}
	writeJSON(w, r, http.StatusOK, s.coffee.Records(rows))
}
