package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires the middleware stack and all routes.
func SetupRoutes(h *Handlers, staticDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(securityHeaders)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", h.HealthCheck)
	r.Post("/api/send", h.Send)

	// Operator UI, when the static assets are deployed alongside.
	r.Get("/", staticFile(staticDir, "index.html"))
	r.Get("/help", staticFile(staticDir, "help.html"))
	r.Get("/favicon.ico", func(w http.ResponseWriter, req *http.Request) {
		path := filepath.Join(staticDir, "favicon.ico")
		if _, err := os.Stat(path); err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.ServeFile(w, req, path)
	})

	return r
}

// securityHeaders adds the browser hardening headers the operator UI
// expects in production.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, req)
	})
}

func staticFile(dir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, req)
			return
		}
		http.ServeFile(w, req, path)
	}
}
