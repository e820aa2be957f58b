package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/db/models"
)

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns every cart line ordered by product id.
func (r *Repository) List(ctx context.Context) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Order("product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get loads the line for a product. Returns gorm.ErrRecordNotFound when the
// product is not in the cart.
func (r *Repository) Get(ctx context.Context, productID string) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// Upsert writes the line, replacing any existing row for the same product.
func (r *Repository) Upsert(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// Delete removes the line for a product if it exists.
func (r *Repository) Delete(ctx context.Context, productID string) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.CartLine{}).Error
}

// DeleteAll empties the cart.
func (r *Repository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.CartLine{}).Error
}
