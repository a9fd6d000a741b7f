package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/order"
	"github.com/mmeshcher/orderdesk/internal/pricing"
	"github.com/mmeshcher/orderdesk/internal/service"
	"github.com/mmeshcher/orderdesk/internal/validation"
)

// formValue принимает значение поля формы как JSON-число или строку.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	*v = formValue(b)
	return nil
}

type draftRequest struct {
	Group                  *string  `json:"group"`
	Seller                 *string  `json:"seller"`
	Client                 *string  `json:"client"`
	Distributor            *string  `json:"distributor"`
	DistributorRepName     *string  `json:"distributorRepName"`
	OverallDiscountPercent *float64 `json:"overallDiscountPercent" validate:"omitempty,gte=0,lte=100"`
}

type lineRequest struct {
	ProductID       *string    `json:"productId"`
	Quantity        *formValue `json:"quantity"`
	Bonus           *formValue `json:"bonus"`
	DiscountPercent *float64   `json:"discountPercent" validate:"omitempty,gte=0,lte=100"`
}

func (req lineRequest) update() pricing.LineUpdate {
	upd := pricing.LineUpdate{
		ProductID:       req.ProductID,
		DiscountPercent: req.DiscountPercent,
	}
	if req.Quantity != nil {
		q := validation.ParseQuantity(string(*req.Quantity))
		upd.Quantity = &q
	}
	if req.Bonus != nil {
		b := validation.ParseBonus(string(*req.Bonus))
		upd.Bonus = &b
	}
	return upd
}

type submitResponse struct {
	Order *model.Order      `json:"order"`
	Draft service.DraftView `json:"draft"`
}

type draftClientResponse struct {
	Client model.Party       `json:"client"`
	Draft  service.DraftView `json:"draft"`
}

// CreateDraft начинает новый черновик заказа.
func (h *Handler) CreateDraft(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusCreated, h.service.NewDraft())
}

// GetDraft возвращает черновик с текущими итогами.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Draft(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get draft", err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// UpdateDraft изменяет группу, стороны заказа или общую скидку.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.UpdateDraft(chi.URLParam(r, "id"), service.DraftUpdate{
		Group: req.Group,
		Parties: order.Parties{
			Seller:             req.Seller,
			Client:             req.Client,
			Distributor:        req.Distributor,
			DistributorRepName: req.DistributorRepName,
		},
		OverallDiscountPercent: req.OverallDiscountPercent,
	})
	if err != nil {
		h.writeError(w, "update draft", err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// DeleteDraft отменяет черновик.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardDraft(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "discard draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLine добавляет в черновик пустую строку.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.AddDraftLine(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "add line", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, d)
}

// UpdateLine изменяет строку черновика.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.UpdateDraftLine(chi.URLParam(r, "id"), index, req.update())
	if err != nil {
		h.writeError(w, "update line", err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// DeleteLine удаляет строку черновика.
func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}

	d, err := h.service.RemoveDraftLine(chi.URLParam(r, "id"), index)
	if err != nil {
		h.writeError(w, "remove line", err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// AddDraftClient создаёт клиента и выбирает его в черновике.
func (h *Handler) AddDraftClient(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, d, err := h.service.AddDraftClient(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeError(w, "add draft client", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, draftClientResponse{Client: p, Draft: d})
}

// SubmitDraft оформляет заказ. Ответ содержит заказ и новый пустой черновик.
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	o, d, err := h.service.SubmitDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "submit draft", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, submitResponse{Order: o, Draft: d})
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return index, true
}
