// Package model содержит доменные сущности сервиса приёма заказов.
package model

import "time"

// DiscountOptions перечисляет допустимые значения скидки в процентах.
var DiscountOptions = []float64{0, 5, 10, 15, 20, 25, 30}

// Product описывает позицию каталога.
type Product struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	Group string  `json:"group"`
}

// OrderLine описывает строку заказа.
type OrderLine struct {
	ProductID       string  `json:"productId"`
	ProductName     string  `json:"productName"`
	Quantity        int     `json:"quantity"`
	Bonus           int     `json:"bonus"`
	DiscountPercent float64 `json:"discountPercent"`
	UnitPrice       float64 `json:"unitPrice"`
	Subtotal        float64 `json:"subtotal"`
}

// NewOrderLine возвращает пустую строку заказа с количеством по умолчанию.
func NewOrderLine() OrderLine {
	return OrderLine{Quantity: 1}
}

// Resolved сообщает, выбран ли для строки товар каталога.
func (l OrderLine) Resolved() bool {
	return l.ProductID != ""
}

// Order описывает оформленный заказ. После создания не изменяется.
type Order struct {
	ID                     int64       `json:"id"`
	Date                   time.Time   `json:"date"`
	Seller                 string      `json:"seller"`
	Client                 string      `json:"client"`
	Distributor            string      `json:"distributor"`
	DistributorRepName     string      `json:"distributorRepName"`
	Lines                  []OrderLine `json:"lines"`
	OverallDiscountPercent float64     `json:"overallDiscountPercent"`
	GrandTotal             float64     `json:"grandTotal"`
}

// PartyKind определяет справочник контрагентов.
type PartyKind string

const (
	PartyClients      PartyKind = "clients"
	PartySellers      PartyKind = "sellers"
	PartyDistributors PartyKind = "distributors"
)

// Valid сообщает, известен ли справочник.
func (k PartyKind) Valid() bool {
	switch k {
	case PartyClients, PartySellers, PartyDistributors:
		return true
	}
	return false
}

// Party описывает запись справочника клиентов, продавцов или дистрибьюторов.
type Party struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}
