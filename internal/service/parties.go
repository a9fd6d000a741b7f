package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/orderdesk/internal/model"
)

// ErrUnknownRegistry возвращается для неизвестного справочника.
var (
	ErrUnknownRegistry = errors.New("unknown registry")
	// ErrPartyNotFound возвращается, если запись справочника не найдена.
	ErrPartyNotFound = errors.New("party not found")
	// ErrEmptyName возвращается при пустом имени записи справочника.
	ErrEmptyName = errors.New("name must not be empty")
)

// Parties возвращает записи справочника в порядке добавления.
func (s *Service) Parties(kind model.PartyKind) ([]model.Party, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegistry, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Party(nil), s.parties[kind]...), nil
}

// AddParty добавляет запись в справочник и возвращает её с новым идентификатором.
func (s *Service) AddParty(ctx context.Context, kind model.PartyKind, name string) (model.Party, error) {
	if !kind.Valid() {
		return model.Party{}, fmt.Errorf("%w: %s", ErrUnknownRegistry, kind)
	}
	name = trimName(name)
	if name == "" {
		return model.Party{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addParty(ctx, kind, name)
}

// addParty вызывается под s.mu.
func (s *Service) addParty(ctx context.Context, kind model.PartyKind, name string) (model.Party, error) {
	p := model.Party{ID: s.nextPartyID(kind), Name: name}
	next := append(append([]model.Party(nil), s.parties[kind]...), p)
	if err := s.commitParties(ctx, kind, next); err != nil {
		return model.Party{}, err
	}
	return p, nil
}

// UpdateParty переименовывает запись справочника.
func (s *Service) UpdateParty(ctx context.Context, kind model.PartyKind, id int64, name string) (model.Party, error) {
	if !kind.Valid() {
		return model.Party{}, fmt.Errorf("%w: %s", ErrUnknownRegistry, kind)
	}
	name = trimName(name)
	if name == "" {
		return model.Party{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]model.Party(nil), s.parties[kind]...)
	for i := range next {
		if next[i].ID == id {
			next[i].Name = name
			if err := s.commitParties(ctx, kind, next); err != nil {
				return model.Party{}, err
			}
			return next[i], nil
		}
	}
	return model.Party{}, fmt.Errorf("%w: %d", ErrPartyNotFound, id)
}

// DeleteParty удаляет запись справочника. Оформленные заказы хранят имя и не меняются.
func (s *Service) DeleteParty(ctx context.Context, kind model.PartyKind, id int64) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownRegistry, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.parties[kind]
	next := make([]model.Party, 0, len(current))
	for _, p := range current {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(current) {
		return fmt.Errorf("%w: %d", ErrPartyNotFound, id)
	}
	return s.commitParties(ctx, kind, next)
}

// nextPartyID выдаёт идентификатор, не совпадающий с существующими в справочнике. Вызывается под s.mu.
func (s *Service) nextPartyID(kind model.PartyKind) int64 {
	id := s.nextID()
	for _, p := range s.parties[kind] {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	if id > s.lastID {
		s.lastID = id
	}
	return id
}

func (s *Service) commitParties(ctx context.Context, kind model.PartyKind, next []model.Party) error {
	if err := s.repo.Save(ctx, string(kind), next); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	s.parties[kind] = next
	return nil
}
