// Package order содержит черновик заказа и сборку оформленного заказа из черновика.
package order

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/orderdesk/internal/catalog"
	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/pricing"
)

// ErrLineIndex возвращается при обращении к несуществующей строке черновика.
var (
	ErrLineIndex = errors.New("line index out of range")
	// ErrDraftSubmitted возвращается при изменении или повторной отправке оформленного черновика.
	ErrDraftSubmitted = errors.New("draft already submitted")
)

// State описывает состояние черновика.
type State string

const (
	StateDraft     State = "draft"
	StateSubmitted State = "submitted"
)

// Parties содержит стороны заказа.
type Parties struct {
	Seller             *string `json:"seller,omitempty"`
	Client             *string `json:"client,omitempty"`
	Distributor        *string `json:"distributor,omitempty"`
	DistributorRepName *string `json:"distributorRepName,omitempty"`
}

// Draft накапливает изменения заказа до отправки. Ограничения не проверяются до Submit.
type Draft struct {
	State                  State             `json:"state"`
	Group                  string            `json:"group"`
	Seller                 string            `json:"seller"`
	Client                 string            `json:"client"`
	Distributor            string            `json:"distributor"`
	DistributorRepName     string            `json:"distributorRepName"`
	Lines                  []model.OrderLine `json:"lines"`
	OverallDiscountPercent float64           `json:"overallDiscountPercent"`
}

// NewDraft создаёт пустой черновик с одной незаполненной строкой.
func NewDraft() *Draft {
	return &Draft{
		State: StateDraft,
		Lines: []model.OrderLine{model.NewOrderLine()},
	}
}

// Clone возвращает независимую копию черновика.
func (d *Draft) Clone() *Draft {
	cp := *d
	cp.Lines = make([]model.OrderLine, len(d.Lines))
	copy(cp.Lines, d.Lines)
	return &cp
}

func (d *Draft) editable() error {
	if d.State == StateSubmitted {
		return ErrDraftSubmitted
	}
	return nil
}

// SetParties изменяет переданные стороны заказа.
func (d *Draft) SetParties(p Parties) error {
	if err := d.editable(); err != nil {
		return err
	}
	if p.Seller != nil {
		d.Seller = *p.Seller
	}
	if p.Client != nil {
		d.Client = *p.Client
	}
	if p.Distributor != nil {
		d.Distributor = *p.Distributor
	}
	if p.DistributorRepName != nil {
		d.DistributorRepName = *p.DistributorRepName
	}
	return nil
}

// SetGroup выбирает группу каталога и переразрешает все строки в пределах группы.
// Товары, не вошедшие в группу, сбрасываются в пустые строки.
func (d *Draft) SetGroup(group string, products []model.Product) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.Group = group
	d.Reprice(products)
	return nil
}

// AddLine добавляет пустую строку и возвращает её индекс.
func (d *Draft) AddLine() (int, error) {
	if err := d.editable(); err != nil {
		return 0, err
	}
	d.Lines = append(d.Lines, model.NewOrderLine())
	return len(d.Lines) - 1, nil
}

// RemoveLine удаляет строку по индексу.
func (d *Draft) RemoveLine(i int) error {
	if err := d.editable(); err != nil {
		return err
	}
	if i < 0 || i >= len(d.Lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, i)
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	return nil
}

// UpdateLine применяет изменение к строке. Товар ищется среди товаров выбранной группы.
func (d *Draft) UpdateLine(i int, upd pricing.LineUpdate, products []model.Product) error {
	if err := d.editable(); err != nil {
		return err
	}
	if i < 0 || i >= len(d.Lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, i)
	}
	d.Lines[i] = pricing.ApplyUpdate(d.Lines[i], upd, catalog.FilterByGroup(products, d.Group))
	return nil
}

// SetOverallDiscount устанавливает общую скидку заказа в процентах.
func (d *Draft) SetOverallDiscount(pct float64) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.OverallDiscountPercent = pct
	return nil
}

// Reprice переразрешает все строки по текущему каталогу. Используется после изменения каталога.
func (d *Draft) Reprice(products []model.Product) {
	if d.State == StateSubmitted {
		return
	}
	visible := catalog.FilterByGroup(products, d.Group)
	for i, l := range d.Lines {
		if !l.Resolved() {
			continue
		}
		d.Lines[i] = pricing.Reprice(l, visible)
	}
}

// Summary возвращает текущие итоги черновика.
func (d *Draft) Summary() pricing.Summary {
	return pricing.Summarize(d.Lines, d.OverallDiscountPercent)
}
