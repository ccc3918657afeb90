package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/me/pbadmin/pkg/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, reqID, model.NewValidationError("Invalid JSON body: "+err.Error()))
		return
	}
	identity := strings.TrimSpace(req.Username)
	if identity == "" {
		identity = strings.TrimSpace(req.Email)
	}

	var details []model.FieldError
	if identity == "" {
		details = append(details, model.FieldError{Field: "username", Message: "required"})
	}
	if req.Password == "" {
		details = append(details, model.FieldError{Field: "password", Message: "required"})
	}
	if len(details) > 0 {
		respondValidation(w, reqID, model.NewValidationError("missing credentials", details...))
		return
	}

	if err := s.auth.Login(r.Context(), identity, req.Password); err != nil {
		respondSessionError(w, reqID, err)
		return
	}

	// Login succeeded even if the token already fails the validity check.
	id, err := s.auth.GetIdentity(r.Context())
	if err != nil {
		respondOK(w, reqID, nil)
		return
	}
	respondOK(w, reqID, id)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(r.Context())
	respondOK(w, RequestIDFromContext(r.Context()), map[string]bool{"logged_out": true})
}

func (s *Server) handleCheckError(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Status int `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, reqID, model.NewValidationError("Invalid JSON body: "+err.Error()))
		return
	}
	if err := s.auth.CheckSessionError(r.Context(), req.Status); err != nil {
		respondSessionError(w, reqID, err)
		return
	}
	respondOK(w, reqID, map[string]bool{"valid": true})
}

func (s *Server) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if err := s.auth.CheckSessionValid(r.Context()); err != nil {
		respondSessionError(w, reqID, err)
		return
	}
	respondOK(w, reqID, map[string]bool{"valid": true})
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	role, err := s.auth.GetPermissions(r.Context())
	if err != nil {
		respondSessionError(w, reqID, err)
		return
	}
	respondOK(w, reqID, role)
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id, err := s.auth.GetIdentity(r.Context())
	if err != nil {
		respondSessionError(w, reqID, err)
		return
	}
	respondOK(w, reqID, id)
}
