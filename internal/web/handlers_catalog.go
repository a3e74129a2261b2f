package web

import (
	"net/http"

	"github.com/JonMunkholm/classdata/internal/apperr"
	"github.com/JonMunkholm/classdata/internal/catalog"
)

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courses, err := s.catalog.Courses(r.Context(), catalog.CourseFilter{
		Subject: q.Get("subject"),
		Level:   q.Get("level"),
	})
	if err != nil {
		respondError(w, r, apperr.Internal(apperr.CodeStoreFailure, err))
		return
	}
	writeJSON(w, r, http.StatusOK, courses)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resources, err := s.catalog.Resources(r.Context(), catalog.ResourceFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		respondError(w, r, apperr.Internal(apperr.CodeStoreFailure, err))
		return
	}
	writeJSON(w, r, http.StatusOK, resources)
}
