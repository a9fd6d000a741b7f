// Package handler содержит HTTP-обработчики API сервиса приёма заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/middleware"
	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/obs"
	"github.com/mmeshcher/orderdesk/internal/order"
	"github.com/mmeshcher/orderdesk/internal/pricing"
	"github.com/mmeshcher/orderdesk/internal/report"
	"github.com/mmeshcher/orderdesk/internal/repository"
	"github.com/mmeshcher/orderdesk/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	AuthenticateUser(ctx context.Context, login, password string) error

	Groups() []string
	Products(ctx context.Context, group string) ([]model.Product, error)
	AddProduct(ctx context.Context, p model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, id string, p model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	Parties(kind model.PartyKind) ([]model.Party, error)
	AddParty(ctx context.Context, kind model.PartyKind, name string) (model.Party, error)
	UpdateParty(ctx context.Context, kind model.PartyKind, id int64, name string) (model.Party, error)
	DeleteParty(ctx context.Context, kind model.PartyKind, id int64) error

	NewDraft() service.DraftView
	Draft(id string) (service.DraftView, error)
	UpdateDraft(id string, upd service.DraftUpdate) (service.DraftView, error)
	DiscardDraft(id string) error
	AddDraftLine(id string) (service.DraftView, error)
	UpdateDraftLine(id string, index int, upd pricing.LineUpdate) (service.DraftView, error)
	RemoveDraftLine(id string, index int) (service.DraftView, error)
	AddDraftClient(ctx context.Context, id, name string) (model.Party, service.DraftView, error)
	SubmitDraft(ctx context.Context, id string) (*model.Order, service.DraftView, error)

	Orders(ctx context.Context) ([]model.Order, error)
	Order(ctx context.Context, id int64) (*model.Order, error)
	Report(ctx context.Context, day time.Time) (*report.Report, error)
}

// Handler реализует HTTP-обработчики API сервиса приёма заказов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	metrics        *obs.Metrics
	authMiddleware *middleware.AuthMiddleware
	validate       *validator.Validate
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, metrics *obs.Metrics) *Handler {
	if metrics == nil {
		metrics = obs.Discard()
	}
	return &Handler{
		service:        s,
		logger:         logger,
		metrics:        metrics,
		authMiddleware: auth,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

type credentialsRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login проверяет учётные данные и открывает сессию.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, req.Login)
	w.WriteHeader(http.StatusOK)
}

// Logout закрывает сессию.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Healthz сообщает, что сервис запущен.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// decode читает JSON-тело запроса и проверяет его теги validate. При ошибке пишет 400 и возвращает false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return false
		}
		h.logger.Error("validate request error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}

	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

type validationResponse struct {
	Reason  order.Reason `json:"reason"`
	Message string       `json:"message"`
	Line    int          `json:"line"`
}

// writeError переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var ve *order.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Reason:  ve.Reason,
			Message: order.Describe(ve),
			Line:    ve.Line,
		})
	case errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrPartyNotFound),
		errors.Is(err, service.ErrUnknownRegistry),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, order.ErrLineIndex):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrProductExists),
		errors.Is(err, order.ErrDraftSubmitted):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrEmptyName):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error(op+" error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
