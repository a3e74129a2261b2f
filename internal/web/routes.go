package web

import "net/http"

// Route is one entry of the route table. Every route is protected by the
// shared-secret gate unless its pattern is listed in
// SECURITY_PUBLIC_ROUTES.
type Route struct {
	Method    string
	Pattern   string
	Protected bool

	handler http.HandlerFunc
}

func (s *Server) routeTable() []Route {
	routes := []Route{
		{Method: http.MethodGet, Pattern: "/healthz", handler: s.handleHealth},

		{Method: http.MethodGet, Pattern: "/api/hello", handler: s.handleHello},
		{Method: http.MethodGet, Pattern: "/api/greet", handler: s.handleGreet},

		{Method: http.MethodGet, Pattern: "/api/students", handler: s.handleStudents},
		{Method: http.MethodGet, Pattern: "/api/students/top", handler: s.handleTopStudents},
		{Method: http.MethodGet, Pattern: "/api/students/average-grade", handler: s.handleAverageGrade},
		{Method: http.MethodGet, Pattern: "/api/students/download", handler: s.handleDownloadStudents},
		{Method: http.MethodGet, Pattern: "/api/students/paginated", handler: s.handlePaginatedStudents},
		{Method: http.MethodGet, Pattern: "/students-view", handler: s.handleStudentsView},

		{Method: http.MethodGet, Pattern: "/api/coffee-data", handler: s.handleCoffee},

		{Method: http.MethodGet, Pattern: "/api/courses", handler: s.handleCourses},
		{Method: http.MethodGet, Pattern: "/api/resources", handler: s.handleResources},

		{Method: http.MethodPost, Pattern: "/api/upload-students", handler: s.handleUploadStudents},
	}
	for i := range routes {
		routes[i].Protected = !s.cfg.Security.IsPublic(routes[i].Pattern)
	}
	return routes
}
