// Package catalog реализует поиск по каталогу товаров.
package catalog

import "github.com/mmeshcher/orderdesk/internal/model"

// Catalog хранит упорядоченный список товаров.
type Catalog struct {
	products []model.Product
}

// New создаёт каталог из списка товаров. Порядок товаров сохраняется.
func New(products []model.Product) *Catalog {
	cp := make([]model.Product, len(products))
	copy(cp, products)
	return &Catalog{products: cp}
}

// Products возвращает копию всех товаров каталога.
func (c *Catalog) Products() []model.Product {
	cp := make([]model.Product, len(c.products))
	copy(cp, c.products)
	return cp
}

// FilterByGroup возвращает товары указанной группы в порядке каталога.
// Пустая группа означает весь каталог.
func (c *Catalog) FilterByGroup(group string) []model.Product {
	return FilterByGroup(c.products, group)
}

// Groups возвращает различные группы в порядке первого появления.
func (c *Catalog) Groups() []string {
	seen := make(map[string]struct{})
	groups := make([]string, 0)
	for _, p := range c.products {
		if p.Group == "" {
			continue
		}
		if _, ok := seen[p.Group]; ok {
			continue
		}
		seen[p.Group] = struct{}{}
		groups = append(groups, p.Group)
	}
	return groups
}

// FilterByGroup возвращает подпоследовательность products с указанной группой.
func FilterByGroup(products []model.Product, group string) []model.Product {
	res := make([]model.Product, 0, len(products))
	for _, p := range products {
		if group == "" || p.Group == group {
			res = append(res, p)
		}
	}
	return res
}

// Resolve ищет товар по идентификатору в списке products.
func Resolve(productID string, products []model.Product) (model.Product, bool) {
	if productID == "" {
		return model.Product{}, false
	}
	for _, p := range products {
		if p.ID == productID {
			return p, true
		}
	}
	return model.Product{}, false
}
