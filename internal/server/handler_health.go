package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/pbadmin/pkg/pocketbase"
)

// Version is the gateway version reported by /health.
const Version = "0.1.0"

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Uptime     string `json:"uptime"`
	PocketBase string `json:"pocketbase"`
	Session    string `json:"session"`
	Expires    string `json:"session_expires,omitempty"`
	Store      string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	resp := healthResponse{
		Status:     "healthy",
		Version:    Version,
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		PocketBase: s.config.PocketBaseURL,
		Session:    "none",
		Store:      "none",
	}
	if s.auth.Authenticated() {
		resp.Session = "valid"
		if exp, ok := pocketbase.TokenExpiry(s.auth.AuthToken()); ok {
			resp.Expires = exp.UTC().Format(time.RFC3339)
		}
	}
	if s.store != nil {
		resp.Store = "ok"
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("store ping failed", "error", err)
			resp.Store = "unavailable"
			resp.Status = "degraded"
		}
	}
	respondOK(w, reqID, resp)
}
