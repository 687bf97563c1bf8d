package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the operator API. Health and metrics endpoints are
// mounted by the runtime around this router.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/route", h.LoadRoute)
		r.Get("/status", h.Status)
		r.Post("/next", h.Next)
		r.Post("/repeat", h.Repeat)
		r.Post("/reset", h.Reset)
		r.Get("/presets", h.ListPresets)
		r.Post("/presets/{id}/play", h.PlayPreset)
		r.Get("/speakers", h.ListSpeakers)
	})
	return r
}
