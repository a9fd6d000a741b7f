package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/orderdesk/internal/middleware"
	"github.com/mmeshcher/orderdesk/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса приёма заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger, h.metrics))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/catalog/groups", h.GetGroups)
			r.Get("/catalog/products", h.GetProducts)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.GetProducts)
				r.Post("/", h.CreateProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})

			for _, kind := range []model.PartyKind{model.PartyClients, model.PartySellers, model.PartyDistributors} {
				r.Route("/"+string(kind), h.partyRoutes(kind))
			}

			r.Route("/drafts", func(r chi.Router) {
				r.Post("/", h.CreateDraft)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetDraft)
					r.Patch("/", h.UpdateDraft)
					r.Delete("/", h.DeleteDraft)
					r.Post("/lines", h.AddLine)
					r.Patch("/lines/{index}", h.UpdateLine)
					r.Delete("/lines/{index}", h.DeleteLine)
					r.Post("/client", h.AddDraftClient)
					r.Post("/submit", h.SubmitDraft)
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.GetOrders)
				r.Get("/{id}", h.GetOrder)
				r.Get("/{id}/summary", h.GetOrderSummary)
				r.Get("/{id}/share", h.GetOrderShare)
			})

			r.Get("/reports", h.GetReport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
