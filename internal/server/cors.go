package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Authorization", "Content-Type"}
)

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}
}

// corsMiddleware reflects the request origin when it is on the allow-list
// and answers "*" otherwise. Any OPTIONS request ends here with an empty
// 200.
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	listed := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		listed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	reflecting := cors.New(corsOptions(allowed))
	open := cors.New(corsOptions([]string{"*"}))

	return func(next http.Handler) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
		viaList := reflecting.Handler(inner)
		viaOpen := open.Handler(inner)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && listed[strings.ToLower(origin)] {
				viaList.ServeHTTP(w, r)
				return
			}
			viaOpen.ServeHTTP(w, r)
		})
	}
}
