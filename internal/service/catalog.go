package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/catalog"
	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/repository"
)

// ErrProductExists возвращается при добавлении товара с уже существующим идентификатором.
var (
	ErrProductExists = errors.New("product already exists")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct возвращается для товара без идентификатора, названия или с отрицательной ценой.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrEmptyCatalog возвращается, если после отбора корректных товаров заменять каталог нечем.
	ErrEmptyCatalog = errors.New("replacement catalog has no valid products")
)

// Products возвращает товары группы в порядке каталога. Пустая группа означает весь каталог.
func (s *Service) Products(ctx context.Context, group string) ([]model.Product, error) {
	cached, ok, err := s.cache.Get(ctx, group)
	if err != nil {
		s.logger.Warn("catalog cache read error", zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	// Запись в кэш под s.mu: иначе commitProducts может сбросить кэш до записи старого списка.
	s.mu.Lock()
	defer s.mu.Unlock()

	list := catalog.FilterByGroup(s.products, group)
	if s.beforeCacheSet != nil {
		s.beforeCacheSet()
	}
	if err := s.cache.Set(ctx, group, list); err != nil {
		s.logger.Warn("catalog cache write error", zap.Error(err))
	}
	return list, nil
}

// Groups возвращает группы каталога.
func (s *Service) Groups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.New(s.products).Groups()
}

func normalizeProduct(p model.Product) (model.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Group = strings.TrimSpace(p.Group)
	if p.ID == "" || p.Name == "" || p.Price < 0 {
		return p, ErrInvalidProduct
	}
	return p, nil
}

// AddProduct добавляет товар в конец каталога.
func (s *Service) AddProduct(ctx context.Context, p model.Product) (model.Product, error) {
	p, err := normalizeProduct(p)
	if err != nil {
		return p, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := catalog.Resolve(p.ID, s.products); ok {
		return p, fmt.Errorf("%w: %s", ErrProductExists, p.ID)
	}

	next := append(append([]model.Product(nil), s.products...), p)
	if err := s.commitProducts(ctx, next); err != nil {
		return p, err
	}
	return p, nil
}

// UpdateProduct заменяет товар с указанным идентификатором.
func (s *Service) UpdateProduct(ctx context.Context, id string, p model.Product) (model.Product, error) {
	p.ID = id
	p, err := normalizeProduct(p)
	if err != nil {
		return p, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]model.Product(nil), s.products...)
	found := false
	for i := range next {
		if next[i].ID == p.ID {
			next[i] = p
			found = true
			break
		}
	}
	if !found {
		return p, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}

	if err := s.commitProducts(ctx, next); err != nil {
		return p, err
	}
	return p, nil
}

// DeleteProduct удаляет товар. Строки черновиков с этим товаром сбрасываются.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(s.products) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}

	return s.commitProducts(ctx, next)
}

// ReplaceCatalog целиком заменяет каталог, например данными внешней системы.
// Если корректных товаров нет, каталог не меняется и возвращается ErrEmptyCatalog.
func (s *Service) ReplaceCatalog(ctx context.Context, products []model.Product) error {
	next := make([]model.Product, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		p, err := normalizeProduct(p)
		if err != nil {
			s.logger.Warn("skipping invalid product", zap.String("id", p.ID))
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		next = append(next, p)
	}
	if len(next) == 0 {
		return fmt.Errorf("%w: %d received", ErrEmptyCatalog, len(products))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitProducts(ctx, next)
}

// commitProducts сохраняет каталог, сбрасывает кэш и переразрешает строки черновиков.
// Вызывается под s.mu.
func (s *Service) commitProducts(ctx context.Context, next []model.Product) error {
	if err := s.repo.Save(ctx, repository.KeyProducts, next); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	s.products = next

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidate error", zap.Error(err))
	}

	for _, d := range s.drafts {
		d.Reprice(s.products)
	}
	return nil
}
