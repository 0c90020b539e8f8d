package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func buildRouter(s *service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler)
	r.Get("/api/server-info", serverInfoHandler)

	// Document APIs
	r.Post("/upload-file", s.uploadFileHandler)
	r.Post("/parse-text", s.parseTextHandler)

	// Lookup APIs
	r.Post("/explain-token", s.explainTokenHandler)
	r.Post("/translate-text", s.translateTextHandler)

	// Provider configuration
	r.Get("/api/config/providers", providersHandler)
	r.Get("/api/config/current", s.currentConfigHandler)
	r.Post("/api/config/update", s.updateConfigHandler)
	r.Post("/api/config/test", s.testConfigHandler)

	r.Handle("/static/uploads/*", http.StripPrefix("/static/uploads/",
		http.FileServer(http.Dir(s.cfg.Server.UploadsDir))))

	return r
}
