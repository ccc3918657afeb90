package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "pbadmin API",
		Version:     "v1",
		Description: "Record administration gateway in front of PocketBase",
		Endpoints: []endpointInfo{
			{"/api/v1/auth/login", []string{"POST"}, "Password login against the auth collection"},
			{"/api/v1/auth/logout", []string{"POST"}, "Clear the session"},
			{"/api/v1/auth/check", []string{"GET"}, "Check or restore the session"},
			{"/api/v1/auth/check-error", []string{"POST"}, "Report a backend status; 401/403 clear the session"},
			{"/api/v1/auth/permissions", []string{"GET"}, "Role of the current user"},
			{"/api/v1/auth/identity", []string{"GET"}, "Profile of the current user"},
			{"/api/v1/resources/{resource}", []string{"GET", "POST", "PATCH", "DELETE"}, "List (?id= for many), create, bulk update, bulk delete (?id=)"},
			{"/api/v1/resources/{resource}/{id}", []string{"GET", "PATCH", "PUT", "DELETE"}, "Single record operations"},
			{"/api/v1/resources/{resource}/reference/{target}/{id}", []string{"GET"}, "Records whose target field references id"},
			{"/api/v1/health", []string{"GET"}, "Gateway health, session and store status"},
		},
	})
}
