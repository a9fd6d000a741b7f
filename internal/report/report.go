// Package report строит отчёт по истории заказов за день.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/orderdesk/internal/model"
)

// DateLayout задаёт формат даты фильтра.
const DateLayout = "2006-01-02"

// Report содержит итоги по отфильтрованным заказам.
type Report struct {
	Date        string        `json:"date,omitempty"`
	TotalSales  float64       `json:"totalSales"`
	TotalOrders int           `json:"totalOrders"`
	Orders      []model.Order `json:"orders"`
}

// ParseDate разбирает дату фильтра. Пустая строка означает отсутствие фильтра.
func ParseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, raw)
}

// Filter оставляет заказы, дата которых по UTC совпадает с day. Нулевой day оставляет все заказы.
func Filter(orders []model.Order, day time.Time) []model.Order {
	res := make([]model.Order, 0, len(orders))
	if day.IsZero() {
		return append(res, orders...)
	}

	want := day.Format(DateLayout)
	for _, o := range orders {
		if o.Date.UTC().Format(DateLayout) == want {
			res = append(res, o)
		}
	}
	return res
}

// Build строит отчёт за день. Заказы в отчёте идут от новых к старым.
func Build(orders []model.Order, day time.Time) Report {
	filtered := Filter(orders, day)

	total := decimal.Zero
	for _, o := range filtered {
		total = total.Add(decimal.NewFromFloat(o.GrandTotal))
	}

	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}

	r := Report{
		TotalSales:  total.Round(2).InexactFloat64(),
		TotalOrders: len(filtered),
		Orders:      filtered,
	}
	if !day.IsZero() {
		r.Date = day.Format(DateLayout)
	}
	return r
}
