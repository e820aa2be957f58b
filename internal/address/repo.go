package address

import (
	"context"

	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/db/models"
)

// Repository exposes persistence operations for saved addresses.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
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

// ListByOwner returns the owner's addresses newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]models.Address, error) {
	var rows []models.Address
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get loads one address by id. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) Get(ctx context.Context, id string) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetDefault loads the owner's default address, if any.
func (r *Repository) GetDefault(ctx context.Context, ownerID string) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts the address row.
func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// Update rewrites the stored row for the same id. Saving a row whose id does
// not exist inserts it, so callers check existence first.
func (r *Repository) Update(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Save(addr).Error
}

// Delete removes the address with the given id if it exists.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Address{}).Error
}

// ClearDefaults unsets the default flag on every address the owner has.
func (r *Repository) ClearDefaults(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		Update("is_default", false).Error
}

// Count reports how many addresses the owner has saved.
func (r *Repository) Count(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

// MarkDefault sets the default flag on one address and reports how many rows
// were touched, so callers can detect a missing id.
func (r *Repository) MarkDefault(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", id).
		Update("is_default", true)
	return res.RowsAffected, res.Error
}
