package web

import (
	"net/http"
)

// MessageResponse is the body of the greeting endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"students": s.students.Len(),
		"coffee":   s.coffee.Len(),
		"uploads":  s.uploads.Status(),
	})
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Hello, world!"})
}

// handleGreet greets ?name=, or "Guest" when the parameter is absent.
func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	name := "Guest"
	if q := r.URL.Query(); q.Has("name") {
		name = q.Get("name")
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Hello, " + name + "!"})
}

// requestBaseURL is the scheme, host and path of r without its query,
// used for deep links to adjacent pages. TrustedRealIP fills r.URL.Scheme
// for requests forwarded by a trusted proxy.
func requestBaseURL(r *http.Request) string {
	scheme := r.URL.Scheme
	switch {
	case scheme != "":
	case r.TLS != nil:
		scheme = "https"
	default:
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
