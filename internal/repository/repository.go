// Package repository содержит хранилища справочников и истории заказов.
package repository

import "errors"

// ErrOrderExists возвращается при повторной записи заказа с тем же идентификатором.
var (
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCorruptCollection возвращается, если сохранённую коллекцию не удалось разобрать.
	ErrCorruptCollection = errors.New("corrupt collection")
)

// Ключи коллекций справочников.
const (
	KeyProducts     = "products"
	KeyClients      = "clients"
	KeySellers      = "sellers"
	KeyDistributors = "distributors"
)
