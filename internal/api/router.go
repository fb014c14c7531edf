package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
)

// NewRouter creates a chi router with all API routes. sseHandler, if non-nil,
// is mounted at GET /events.
func NewRouter(svc *itemservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(CORSMiddleware)

	// Items.
	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Put("/items", h.ReplaceItems)
	r.Post("/items/reorder", h.ReorderItems)
	r.Delete("/items/{id}", h.DeleteItem)
	r.Post("/items/{id}/pin", h.TogglePin)

	r.Get("/search", h.Search)
	r.Get("/metadata", h.Metadata)

	// Backup and sync.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Post("/sync/pull", h.SyncPull)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewRootRouter wraps the API router with the standard middleware stack,
// health endpoints and the /api mount point.
func NewRootRouter(svc *itemservice.Service, sseHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", NewRouter(svc, sseHandler))
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
