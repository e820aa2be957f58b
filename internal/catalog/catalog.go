package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
)

// Product is a catalog entry. The catalog is fixed at build time; a real
// deployment would load it from an API or its own table.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
}

var products = []Product{
	{
		ID:          "1",
		Name:        "Smartphone Galaxy",
		Price:       decimal.RequireFromString("299.99"),
		Description: "Android smartphone with a 6.1\" display and 48MP camera",
		ImageURL:    "/assets/images/test1.webp",
	},
	{
		ID:          "2",
		Name:        "Laptop Pro",
		Price:       decimal.RequireFromString("1299.99"),
		Description: "Professional laptop with an Intel i7 processor and 16GB RAM",
		ImageURL:    "/assets/images/test2.webp",
	},
	{
		ID:          "3",
		Name:        "Wireless Headphones",
		Price:       decimal.RequireFromString("89.99"),
		Description: "Wireless headphones with noise cancellation",
		ImageURL:    "/assets/images/test3.webp",
	},
	{
		ID:          "4",
		Name:        "Smart Watch",
		Price:       decimal.RequireFromString("199.99"),
		Description: "Smart watch with GPS and a heart-rate monitor",
		ImageURL:    "/assets/images/test4.webp",
	},
	{
		ID:          "5",
		Name:        "Tablet 10\"",
		Price:       decimal.RequireFromString("399.99"),
		Description: "Android tablet with a 10\" HD display",
		ImageURL:    "/assets/images/test5.webp",
	},
}

// Service exposes read-only catalog lookups.
type Service interface {
	List() []Product
	Search(query string) []Product
	Get(id string) (*Product, error)
}

type service struct{}

// NewService builds the fixed-catalog service.
func NewService() Service {
	return &service{}
}

// List returns every product in catalog order.
func (s *service) List() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// Search returns the products whose name or description contains the query,
// case-insensitive. A blank query returns the whole catalog.
func (s *service) Search(query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List()
	}

	out := []Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the product with the given id.
func (s *service) Get(id string) (*Product, error) {
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}
