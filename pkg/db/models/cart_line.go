package models

import "github.com/shopspring/decimal"

// CartLine persists one product in the cart together with its merged
// quantity. A row only exists while quantity >= 1; dropping to zero deletes
// the row instead of storing it.
type CartLine struct {
	ProductID       string          `gorm:"column:product_id;primaryKey" json:"product_id"`
	ProductName     string          `gorm:"column:product_name;not null" json:"product_name"`
	ProductPrice    decimal.Decimal `gorm:"column:product_price;type:numeric;not null" json:"product_price"`
	ProductImageURL string          `gorm:"column:product_image_url" json:"product_image_url"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
}

func (CartLine) TableName() string {
	return "cart_lines"
}

// LineTotal returns price * quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
