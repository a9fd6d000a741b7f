package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mmeshcher/orderdesk/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Коллекции хранятся в JSON, как и в PostgreSQL.
type MemoryRepository struct {
	mu          sync.RWMutex
	collections map[string][]byte
	orders      []model.Order
	index       map[int64]int
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		collections: make(map[string][]byte),
		index:       make(map[int64]int),
	}
}

// Close ничего не делает.
func (r *MemoryRepository) Close() error { return nil }

// Load читает коллекцию по ключу в dst.
func (r *MemoryRepository) Load(_ context.Context, key string, dst any) (bool, error) {
	r.mu.RLock()
	data, ok := r.collections[key]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w %s: %v", ErrCorruptCollection, key, err)
	}
	return true, nil
}

// Save целиком заменяет коллекцию по ключу.
func (r *MemoryRepository) Save(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", key, err)
	}

	r.mu.Lock()
	r.collections[key] = data
	r.mu.Unlock()
	return nil
}

// SaveRaw записывает сырые данные коллекции.
func (r *MemoryRepository) SaveRaw(key string, data []byte) {
	r.mu.Lock()
	r.collections[key] = data
	r.mu.Unlock()
}

// AppendOrder добавляет заказ в историю.
func (r *MemoryRepository) AppendOrder(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[o.ID]; ok {
		return fmt.Errorf("%w: %d", ErrOrderExists, o.ID)
	}

	r.index[o.ID] = len(r.orders)
	r.orders = append(r.orders, cloneOrder(*o))
	return nil
}

// ListOrders возвращает историю заказов в порядке добавления.
func (r *MemoryRepository) ListOrders(_ context.Context) ([]model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		res = append(res, cloneOrder(o))
	}
	return res, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *MemoryRepository) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o := cloneOrder(r.orders[i])
	return &o, nil
}

func cloneOrder(o model.Order) model.Order {
	lines := make([]model.OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	return o
}
