// Package service реализует бизнес-логику сервиса приёма заказов.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/orderdesk/internal/catalog"
	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/obs"
	"github.com/mmeshcher/orderdesk/internal/order"
	"github.com/mmeshcher/orderdesk/internal/report"
	"github.com/mmeshcher/orderdesk/internal/repository"
)

// ErrInvalidCredentials возвращается при неверном логине или пароле.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidDiscount возвращается, если скидка не входит в допустимый набор.
	ErrInvalidDiscount = errors.New("discount is not one of the allowed values")
)

// Repository описывает контракт хранилища, используемый сервисом.
type Repository interface {
	Close() error
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	AppendOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
}

// Credentials задаёт учётные данные единственного пользователя.
type Credentials struct {
	Login    string
	Password string
}

// Options содержит необязательные зависимости сервиса.
type Options struct {
	Credentials Credentials
	Rules       order.Rules
	Cache       *catalog.Cache
	Metrics     *obs.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// Service владеет состоянием приложения: каталогом, справочниками и черновиками заказов.
type Service struct {
	repo    Repository
	cache   *catalog.Cache
	builder *order.Builder
	metrics *obs.Metrics
	logger  *zap.Logger
	creds   Credentials
	now     func() time.Time

	mu       sync.Mutex
	products []model.Product
	parties  map[model.PartyKind][]model.Party
	drafts   map[string]*order.Draft
	lastID   int64

	// beforeCacheSet вызывается в Products перед записью в кэш. Используется в тестах.
	beforeCacheSet func()
}

// NewService создаёт сервис. Перед использованием состояние нужно загрузить через Load.
func NewService(repo Repository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = obs.Discard()
	}
	if opts.Credentials.Login == "" {
		opts.Credentials = Credentials{Login: "admin", Password: "admin123"}
	}

	return &Service{
		repo:    repo,
		cache:   opts.Cache,
		builder: order.NewBuilder(opts.Rules, opts.Now),
		metrics: opts.Metrics,
		logger:  opts.Logger,
		creds:   opts.Credentials,
		now:     opts.Now,
		parties: make(map[model.PartyKind][]model.Party),
		drafts:  make(map[string]*order.Draft),
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Load загружает каталог и справочники. Отсутствующие, пустые или повреждённые коллекции
// заполняются начальными данными и сохраняются.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := loadCollection(ctx, s, repository.KeyProducts, seedProducts)
	if err != nil {
		return err
	}
	s.products = products

	for _, kind := range []model.PartyKind{model.PartyClients, model.PartySellers, model.PartyDistributors} {
		list, err := loadCollection(ctx, s, string(kind), seedParties[kind])
		if err != nil {
			return err
		}
		s.parties[kind] = list
	}

	return nil
}

func loadCollection[T any](ctx context.Context, s *Service, key string, seed []T) ([]T, error) {
	var list []T
	ok, err := s.repo.Load(ctx, key, &list)
	if err != nil && !errors.Is(err, repository.ErrCorruptCollection) {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if err == nil && ok && len(list) > 0 {
		return list, nil
	}

	if err != nil {
		s.logger.Warn("stored collection is corrupt, using defaults", zap.String("key", key), zap.Error(err))
	}

	list = append([]T(nil), seed...)
	if err := s.repo.Save(ctx, key, list); err != nil {
		return nil, fmt.Errorf("save %s: %w", key, err)
	}
	return list, nil
}

// AuthenticateUser проверяет логин и пароль единственного пользователя.
func (s *Service) AuthenticateUser(_ context.Context, login, password string) error {
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(s.creds.Login)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	if !loginOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// nextID выдаёт идентификатор записи справочника по времени в миллисекундах.
// Вызывается под s.mu.
func (s *Service) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Orders возвращает историю заказов в порядке оформления.
func (s *Service) Orders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// Order возвращает заказ по идентификатору.
func (s *Service) Order(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// Report строит отчёт по заказам за день. Нулевой day означает все заказы.
func (s *Service) Report(ctx context.Context, day time.Time) (*report.Report, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	r := report.Build(orders, day)
	return &r, nil
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}
