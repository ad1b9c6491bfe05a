package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docquery/internal/handlers"
	"docquery/internal/service"
	"docquery/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DocumentService service.DocumentService
	Index           vectorstore.VectorIndex
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	documentsHandler := handlers.NewDocumentsHandler(deps.DocumentService)
	askHandler := handlers.NewAskHandler(deps.DocumentService)
	statsHandler := handlers.NewStatsHandler(deps.DocumentService)
	healthHandler := handlers.NewHealthHandler(deps.Index)

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", documentsHandler.Upload)
		r.Get("/documents", documentsHandler.List)
		r.Delete("/documents/{documentID}", documentsHandler.Delete)
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
		r.Method(http.MethodGet, "/healthz", healthHandler)
	})

	return r
}
