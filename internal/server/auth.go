package server

import (
	"net/http"

	"github.com/me/pbadmin/internal/auth"
)

// requireSession rejects requests with 401 unless a valid session is live
// or can be restored from the durable copy.
func requireSession(a *auth.Adapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.CheckSessionValid(r.Context()); err != nil {
				respondSessionError(w, RequestIDFromContext(r.Context()), err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
