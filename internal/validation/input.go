// Package validation содержит функции проверки и нормализации входных данных.
package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/mmeshcher/orderdesk/internal/model"
)

// ParseQuantity разбирает количество товара. Нечисловое значение или значение меньше 1 даёт 1.
func ParseQuantity(raw string) int {
	n, ok := parseInt(raw)
	if !ok || n < 1 {
		return 1
	}
	return n
}

// ParseBonus разбирает число бонусных единиц. Нечисловое или отрицательное значение даёт 0.
func ParseBonus(raw string) int {
	n, ok := parseInt(raw)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func parseInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	// "2.0" и "2.7" из числовых полей формы
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// IsAllowedDiscount проверяет, что скидка входит в фиксированный набор значений.
func IsAllowedDiscount(pct float64) bool {
	for _, d := range model.DiscountOptions {
		if d == pct {
			return true
		}
	}
	return false
}
