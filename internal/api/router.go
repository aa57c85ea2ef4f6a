package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers all API endpoints on a chi router.
func NewRouter(svc BankrollService) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/player/{playerId}", func(r chi.Router) {
		r.Get("/crystals", h.GetCrystalsHandler)
		r.Post("/crystals", h.GrantCrystalsHandler)
		r.Delete("/crystals", h.EmptyCrystalsHandler)
		r.Post("/payment", h.PaymentHandler)
		r.Get("/quote", h.QuoteHandler)
	})

	return r
}
