package api

import (
	"net/http"

	"github.com/fastprodman/changuard/internal/services/verdict"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(svc *verdict.VerdictService, maxBodyBytes int64) http.Handler {
	h := NewHandler(svc, maxBodyBytes)
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	// process liveness, not channel health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/channel", func(r chi.Router) {
		r.Post("/transition", h.CheckTransitionHandler)
		r.Post("/health", h.CheckHealthHandler)
	})

	return r
}
