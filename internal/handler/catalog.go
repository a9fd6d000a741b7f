package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/orderdesk/internal/model"
)

// GetGroups возвращает группы каталога.
func (h *Handler) GetGroups(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Groups())
}

// GetProducts возвращает товары группы из параметра group или весь каталог.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		h.writeError(w, "get products", err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	h.writeJSON(w, http.StatusOK, products)
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.Product
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.AddProduct(r.Context(), req)
	if err != nil {
		h.writeError(w, "add product", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct заменяет товар. Идентификатор берётся из пути.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), model.Product{
		Name:  req.Name,
		Price: req.Price,
		Group: req.Group,
	})
	if err != nil {
		h.writeError(w, "update product", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

type productUpdateRequest struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	Group string  `json:"group"`
}

// DeleteProduct удаляет товар.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type partyRequest struct {
	Name string `json:"name" validate:"required"`
}

// partyRoutes регистрирует CRUD справочника kind.
func (h *Handler) partyRoutes(kind model.PartyKind) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := h.service.Parties(kind)
			if err != nil {
				h.writeError(w, "get parties", err)
				return
			}
			h.writeJSON(w, http.StatusOK, list)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req partyRequest
			if !h.decode(w, r, &req) {
				return
			}
			p, err := h.service.AddParty(r.Context(), kind, req.Name)
			if err != nil {
				h.writeError(w, "add party", err)
				return
			}
			h.writeJSON(w, http.StatusCreated, p)
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := partyID(w, r)
			if !ok {
				return
			}
			var req partyRequest
			if !h.decode(w, r, &req) {
				return
			}
			p, err := h.service.UpdateParty(r.Context(), kind, id, req.Name)
			if err != nil {
				h.writeError(w, "update party", err)
				return
			}
			h.writeJSON(w, http.StatusOK, p)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := partyID(w, r)
			if !ok {
				return
			}
			if err := h.service.DeleteParty(r.Context(), kind, id); err != nil {
				h.writeError(w, "delete party", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func partyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
