package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/orderdesk/internal/model"
)

const cacheKeyPrefix = "orderdesk:catalog:"

// Cache хранит отфильтрованные по группе списки товаров в Redis.
// Кэш с nil-клиентом ничего не хранит.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache создаёт кэш списков товаров.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// cacheKey разделяет пространства ключей полного каталога и групп,
// чтобы имя группы не могло совпасть с ключом всего каталога.
func cacheKey(group string) string {
	if group == "" {
		return cacheKeyPrefix + "all"
	}
	return cacheKeyPrefix + "group:" + group
}

// Get возвращает закэшированный список товаров группы и признак его наличия.
func (c *Cache) Get(ctx context.Context, group string) ([]model.Product, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, cacheKey(group)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached products: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("decode cached products: %w", err)
	}
	return products, true, nil
}

// Set сохраняет список товаров группы.
func (c *Cache) Set(ctx context.Context, group string, products []model.Product) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(group), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached products: %w", err)
	}
	return nil
}

// Invalidate удаляет все закэшированные списки. Вызывается при любом изменении каталога.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached products: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached products: %w", err)
	}
	return nil
}
