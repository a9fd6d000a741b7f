// Package pricing рассчитывает суммы строк заказа и итог заказа.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/orderdesk/internal/catalog"
	"github.com/mmeshcher/orderdesk/internal/model"
)

var hundred = decimal.NewFromInt(100)

// LineUpdate описывает изменение одного или нескольких полей строки заказа.
// Поля со значением nil не меняются.
type LineUpdate struct {
	ProductID       *string  `json:"productId,omitempty"`
	Quantity        *int     `json:"quantity,omitempty"`
	Bonus           *int     `json:"bonus,omitempty"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

// Summary содержит итоговые суммы заказа.
type Summary struct {
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	GrandTotal float64 `json:"grandTotal"`
}

// Round2 округляет сумму до двух знаков, половина округляется от нуля.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func lineSubtotal(unitPrice float64, quantity int, discountPercent float64) decimal.Decimal {
	price := decimal.NewFromFloat(unitPrice)
	discount := price.Mul(decimal.NewFromFloat(discountPercent)).Div(hundred)
	return price.Sub(discount).Mul(decimal.NewFromInt(int64(quantity)))
}

// LineSubtotal возвращает сумму строки: цена за вычетом скидки строки, умноженная на количество.
// Бонусные единицы в сумму не входят.
func LineSubtotal(unitPrice float64, quantity int, discountPercent float64) float64 {
	return lineSubtotal(unitPrice, quantity, discountPercent).Round(2).InexactFloat64()
}

// Normalize приводит количество и бонус к допустимым значениям и пересчитывает сумму строки.
func Normalize(line model.OrderLine) model.OrderLine {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	if line.Bonus < 0 {
		line.Bonus = 0
	}
	if line.UnitPrice < 0 {
		line.UnitPrice = 0
	}
	line.Subtotal = LineSubtotal(line.UnitPrice, line.Quantity, line.DiscountPercent)
	return line
}

// Reprice заново находит товар строки в списке products и пересчитывает строку.
// Если товар не найден, название, цена и сумма сбрасываются.
func Reprice(line model.OrderLine, products []model.Product) model.OrderLine {
	p, ok := catalog.Resolve(line.ProductID, products)
	if !ok {
		line.ProductID = ""
		line.ProductName = ""
		line.UnitPrice = 0
		return Normalize(line)
	}
	line.ProductName = p.Name
	line.UnitPrice = p.Price
	return Normalize(line)
}

// ApplyUpdate применяет изменение к строке и возвращает новую строку.
// Товар переразрешается только при смене ProductID.
func ApplyUpdate(line model.OrderLine, upd LineUpdate, products []model.Product) model.OrderLine {
	if upd.Quantity != nil {
		line.Quantity = *upd.Quantity
	}
	if upd.Bonus != nil {
		line.Bonus = *upd.Bonus
	}
	if upd.DiscountPercent != nil {
		line.DiscountPercent = *upd.DiscountPercent
	}
	if upd.ProductID != nil {
		line.ProductID = *upd.ProductID
		return Reprice(line, products)
	}
	return Normalize(line)
}

func subtotal(lines []model.OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if !l.Resolved() {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(l.Subtotal))
	}
	return sum
}

// Subtotal суммирует суммы строк. Строки без товара дают ноль.
func Subtotal(lines []model.OrderLine) float64 {
	return subtotal(lines).Round(2).InexactFloat64()
}

// GrandTotal применяет общую скидку к сумме строк. Результат не бывает отрицательным.
func GrandTotal(lines []model.OrderLine, overallDiscountPercent float64) float64 {
	return Summarize(lines, overallDiscountPercent).GrandTotal
}

// Summarize возвращает сумму строк, размер общей скидки и итог заказа.
func Summarize(lines []model.OrderLine, overallDiscountPercent float64) Summary {
	if overallDiscountPercent < 0 {
		overallDiscountPercent = 0
	}

	sub := subtotal(lines)
	discount := sub.Mul(decimal.NewFromFloat(overallDiscountPercent)).Div(hundred)

	total := sub.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
		discount = sub
	}

	return Summary{
		Subtotal:   sub.Round(2).InexactFloat64(),
		Discount:   discount.Round(2).InexactFloat64(),
		GrandTotal: total.Round(2).InexactFloat64(),
	}
}
