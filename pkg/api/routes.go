package api

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(CorsMiddleware)
		r.Get("/indices", s.HandleListIndices)
		r.Get("/indices/{index}/stats", s.HandleIndexStats)
		r.Get("/indices/{index}/documents", s.HandleDocuments)
	})
	r.Get("/health", s.HandleHealth)
}
