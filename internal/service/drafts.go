package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/order"
	"github.com/mmeshcher/orderdesk/internal/pricing"
	"github.com/mmeshcher/orderdesk/internal/validation"
)

// ErrDraftNotFound возвращается, если черновик не найден.
var ErrDraftNotFound = errors.New("draft not found")

// DraftUpdate описывает изменение полей черновика. Поля со значением nil не меняются.
type DraftUpdate struct {
	Group *string `json:"group,omitempty"`
	order.Parties
	OverallDiscountPercent *float64 `json:"overallDiscountPercent,omitempty"`
}

// DraftView представляет черновик вместе с текущими итогами.
type DraftView struct {
	ID string `json:"id"`
	order.Draft
	Summary pricing.Summary `json:"summary"`
}

func view(id string, d *order.Draft) DraftView {
	cp := d.Clone()
	return DraftView{ID: id, Draft: *cp, Summary: cp.Summary()}
}

// NewDraft создаёт новый черновик заказа.
func (s *Service) NewDraft() DraftView {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	d := order.NewDraft()
	s.drafts[id] = d
	return view(id, d)
}

// Draft возвращает черновик по идентификатору.
func (s *Service) Draft(id string) (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return DraftView{}, err
	}
	return view(id, d), nil
}

// DiscardDraft удаляет черновик.
func (s *Service) DiscardDraft(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.draft(id); err != nil {
		return err
	}
	delete(s.drafts, id)
	return nil
}

// UpdateDraft изменяет группу каталога, стороны заказа и общую скидку.
func (s *Service) UpdateDraft(id string, upd DraftUpdate) (DraftView, error) {
	if upd.OverallDiscountPercent != nil && !validation.IsAllowedDiscount(*upd.OverallDiscountPercent) {
		return DraftView{}, fmt.Errorf("%w: %v", ErrInvalidDiscount, *upd.OverallDiscountPercent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return DraftView{}, err
	}

	if upd.Group != nil {
		if err := d.SetGroup(*upd.Group, s.products); err != nil {
			return DraftView{}, err
		}
	}
	if err := d.SetParties(upd.Parties); err != nil {
		return DraftView{}, err
	}
	if upd.OverallDiscountPercent != nil {
		if err := d.SetOverallDiscount(*upd.OverallDiscountPercent); err != nil {
			return DraftView{}, err
		}
	}
	return view(id, d), nil
}

// AddDraftLine добавляет в черновик пустую строку.
func (s *Service) AddDraftLine(id string) (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return DraftView{}, err
	}
	if _, err := d.AddLine(); err != nil {
		return DraftView{}, err
	}
	return view(id, d), nil
}

// UpdateDraftLine применяет изменение к строке черновика и пересчитывает итоги.
func (s *Service) UpdateDraftLine(id string, index int, upd pricing.LineUpdate) (DraftView, error) {
	if upd.DiscountPercent != nil && !validation.IsAllowedDiscount(*upd.DiscountPercent) {
		return DraftView{}, fmt.Errorf("%w: %v", ErrInvalidDiscount, *upd.DiscountPercent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return DraftView{}, err
	}
	if err := d.UpdateLine(index, upd, s.products); err != nil {
		return DraftView{}, err
	}
	return view(id, d), nil
}

// RemoveDraftLine удаляет строку черновика.
func (s *Service) RemoveDraftLine(id string, index int) (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return DraftView{}, err
	}
	if err := d.RemoveLine(index); err != nil {
		return DraftView{}, err
	}
	return view(id, d), nil
}

// AddDraftClient добавляет клиента в справочник и сразу выбирает его в черновике.
func (s *Service) AddDraftClient(ctx context.Context, id, name string) (model.Party, DraftView, error) {
	name = trimName(name)
	if name == "" {
		return model.Party{}, DraftView{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return model.Party{}, DraftView{}, err
	}

	p, err := s.addParty(ctx, model.PartyClients, name)
	if err != nil {
		return model.Party{}, DraftView{}, err
	}
	if err := d.SetParties(order.Parties{Client: &p.Name}); err != nil {
		return model.Party{}, DraftView{}, err
	}
	return p, view(id, d), nil
}

// SubmitDraft проверяет черновик и сохраняет заказ. При успехе черновик заменяется пустым
// под тем же идентификатором. При отклонении черновик и история заказов не меняются.
func (s *Service) SubmitDraft(ctx context.Context, id string) (*model.Order, DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.draft(id)
	if err != nil {
		return nil, DraftView{}, err
	}

	o, err := s.builder.Submit(d.Clone())
	if err != nil {
		var ve *order.ValidationError
		if errors.As(err, &ve) {
			s.metrics.OrdersRejected.WithLabelValues(string(ve.Reason)).Inc()
		}
		return nil, DraftView{}, err
	}

	if err := s.repo.AppendOrder(ctx, o); err != nil {
		return nil, DraftView{}, fmt.Errorf("append order: %w", err)
	}

	s.metrics.OrdersSubmitted.Inc()
	s.metrics.OrderGrandTotal.Observe(o.GrandTotal)
	s.logger.Info("order submitted",
		zap.Int64("order", o.ID),
		zap.String("client", o.Client),
		zap.Float64("grandTotal", o.GrandTotal),
	)

	fresh := order.NewDraft()
	s.drafts[id] = fresh
	return o, view(id, fresh), nil
}

// draft вызывается под s.mu.
func (s *Service) draft(id string) (*order.Draft, error) {
	d, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return d, nil
}
