package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/AhmedAllulu/articles-backend-sub000/internal/api/middleware"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler   http.HandlerFunc
	StatusHandler   http.HandlerFunc
	TriggerRefresh  http.HandlerFunc
	TriggerGenerate http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/v1/status", orNotImplemented(deps.StatusHandler))

	r.Post("/api/v1/jobs/trend-refresh/run", orNotImplemented(deps.TriggerRefresh))
	r.Post("/api/v1/jobs/article-generation/run", orNotImplemented(deps.TriggerGenerate))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
