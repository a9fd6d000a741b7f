package order

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/pricing"
)

// Reason классифицирует причину отклонения черновика.
type Reason string

const (
	ReasonEmptyOrder        Reason = "empty_order"
	ReasonMissingClient     Reason = "missing_client"
	ReasonMissingSeller     Reason = "missing_seller"
	ReasonUnresolvedProduct Reason = "unresolved_product"
	ReasonInvalidPrice      Reason = "invalid_price"
)

// ValidationError описывает первую найденную причину, по которой черновик нельзя оформить.
type ValidationError struct {
	Reason  Reason
	Message string
	Line    int
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Rules задаёт настраиваемые правила проверки черновика.
type Rules struct {
	RequireSeller bool
}

// Builder проверяет черновики и собирает из них заказы.
type Builder struct {
	rules Rules
	now   func() time.Time

	mu     sync.Mutex
	lastID int64
}

// NewBuilder создаёт сборщик заказов. Если now равен nil, используется time.Now.
func NewBuilder(rules Rules, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{rules: rules, now: now}
}

// Validate проверяет черновик и возвращает *ValidationError для первой найденной проблемы.
func (b *Builder) Validate(d *Draft) error {
	if strings.TrimSpace(d.Client) == "" {
		return &ValidationError{
			Reason:  ReasonMissingClient,
			Message: "please select a client",
			Line:    -1,
		}
	}

	if b.rules.RequireSeller && strings.TrimSpace(d.Seller) == "" {
		return &ValidationError{
			Reason:  ReasonMissingSeller,
			Message: "please select a seller",
			Line:    -1,
		}
	}

	if len(d.Lines) == 0 {
		return &ValidationError{
			Reason:  ReasonEmptyOrder,
			Message: "the order has no products",
			Line:    -1,
		}
	}

	for i, l := range d.Lines {
		if !l.Resolved() {
			return &ValidationError{
				Reason:  ReasonUnresolvedProduct,
				Message: "make sure every line has a valid product",
				Line:    i,
			}
		}
	}

	for i, l := range d.Lines {
		if l.UnitPrice <= 0 {
			return &ValidationError{
				Reason:  ReasonInvalidPrice,
				Message: "make sure every product has a valid price",
				Line:    i,
			}
		}
	}

	return nil
}

// Submit проверяет черновик и при успехе возвращает новый заказ, переводя черновик в StateSubmitted.
// При отклонении черновик не меняется.
func (b *Builder) Submit(d *Draft) (*model.Order, error) {
	if err := d.editable(); err != nil {
		return nil, err
	}
	if err := b.Validate(d); err != nil {
		return nil, err
	}

	lines := make([]model.OrderLine, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = pricing.Normalize(l)
	}

	now := b.now().UTC().Truncate(time.Millisecond)
	o := &model.Order{
		ID:                     b.nextID(now),
		Date:                   now,
		Seller:                 d.Seller,
		Client:                 d.Client,
		Distributor:            d.Distributor,
		DistributorRepName:     d.DistributorRepName,
		Lines:                  lines,
		OverallDiscountPercent: d.OverallDiscountPercent,
		GrandTotal:             pricing.GrandTotal(lines, d.OverallDiscountPercent),
	}

	d.State = StateSubmitted
	return o, nil
}

// nextID выдаёт идентификатор по времени в миллисекундах, строго возрастающий в пределах сборщика.
func (b *Builder) nextID(now time.Time) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := now.UnixMilli()
	if id <= b.lastID {
		id = b.lastID + 1
	}
	b.lastID = id
	return id
}

// Describe возвращает сообщение для пользователя по ошибке Submit.
func Describe(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Line >= 0 {
			return fmt.Sprintf("%s (line %d)", ve.Message, ve.Line+1)
		}
		return ve.Message
	}
	return err.Error()
}
