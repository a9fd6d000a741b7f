package repository

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/orderdesk/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository хранит справочники и историю заказов в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(retryDelays) {
			return err
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Load читает коллекцию по ключу в dst. Возвращает false, если коллекция ещё не сохранялась.
func (r *PostgresRepository) Load(ctx context.Context, key string, dst any) (bool, error) {
	var data []byte
	err := withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT data FROM collections WHERE key = $1`,
			key,
		).Scan(&data)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select collection %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w %s: %v", ErrCorruptCollection, key, err)
	}
	return true, nil
}

// Save целиком заменяет коллекцию по ключу.
func (r *PostgresRepository) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", key, err)
	}

	err = withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO collections (key, data) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
			key, data,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save collection %s: %w", key, err)
	}
	return nil
}

// AppendOrder добавляет заказ в историю. Заказы не изменяются и не удаляются.
func (r *PostgresRepository) AppendOrder(ctx context.Context, o *model.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	attempts := 0
	err = withRetry(ctx, func() error {
		attempts++
		_, err := r.pool.Exec(ctx,
			`INSERT INTO orders (id, created_at, client, grand_total, data) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, o.Date, o.Client, o.GrandTotal, data,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return resolveDuplicate(ctx, data, attempts > 1, r.GetOrder)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// resolveDuplicate решает судьбу вставки, упавшей на уникальном ключе.
// После повтора первая попытка могла закоммититься до обрыва соединения:
// если в базе лежит тот же заказ, вставка считается успешной.
func resolveDuplicate(ctx context.Context, data []byte, retried bool, lookup func(context.Context, int64) (*model.Order, error)) error {
	var want model.Order
	if err := json.Unmarshal(data, &want); err != nil {
		return fmt.Errorf("decode order: %w", err)
	}
	if !retried {
		return fmt.Errorf("%w: %d", ErrOrderExists, want.ID)
	}

	stored, err := lookup(ctx, want.ID)
	if err != nil {
		return fmt.Errorf("check stored order %d: %w", want.ID, err)
	}

	storedData, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode stored order: %w", err)
	}
	wantData, err := json.Marshal(&want)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if !bytes.Equal(storedData, wantData) {
		return fmt.Errorf("%w: %d", ErrOrderExists, want.ID)
	}
	return nil
}

// ListOrders возвращает историю заказов в порядке добавления.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM orders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		var o model.Order
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM orders WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	var o model.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &o, nil
}
