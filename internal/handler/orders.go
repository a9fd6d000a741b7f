package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/report"
	"github.com/mmeshcher/orderdesk/internal/summary"
)

type shareResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// GetOrders возвращает историю заказов в порядке оформления.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Orders(r.Context())
	if err != nil {
		h.writeError(w, "get orders", err)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

// GetOrderSummary отдаёт печатную сводку заказа в HTML.
func (h *Handler) GetOrderSummary(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	page, err := summary.RenderBytes(*o)
	if err != nil {
		h.logger.Error("render summary error", zap.Error(err), zap.Int64("order", o.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+summary.FileName(*o)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// GetOrderShare возвращает ссылку для отправки заказа в WhatsApp.
func (h *Handler) GetOrderShare(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, shareResponse{
		URL:     summary.ShareURL(*o),
		Message: summary.Message(*o),
	})
}

// GetReport возвращает отчёт по заказам за день из параметра date или по всем заказам.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	day, err := report.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	rep, err := h.service.Report(r.Context(), day)
	if err != nil {
		h.writeError(w, "build report", err)
		return
	}
	if rep.Orders == nil {
		rep.Orders = []model.Order{}
	}
	h.writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*model.Order, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return nil, false
	}

	o, err := h.service.Order(r.Context(), id)
	if err != nil {
		h.writeError(w, "get order", err)
		return nil, false
	}
	return o, true
}
