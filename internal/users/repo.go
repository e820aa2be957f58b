package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/db/models"
)

// Repository persists the singleton user profile.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profile repository bound to the provided DB.
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

// Get loads the principal profile. Returns gorm.ErrRecordNotFound when no
// account has been registered yet.
func (r *Repository) Get(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).
		Where("id = ?", models.PrincipalUserID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts the profile row.
func (r *Repository) Create(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// SetLoginFlag flips the session flag on the principal profile and bumps
// updated_at. Updating a missing profile is a store-level no-op.
func (r *Repository) SetLoginFlag(ctx context.Context, loggedIn bool) error {
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", models.PrincipalUserID).
		Update("is_logged_in", loggedIn).Error
}
