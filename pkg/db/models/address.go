package models

import "time"

// Address is a saved delivery address owned by the principal user. At most
// one address per owner carries IsDefault at any observable instant; the
// coordinator in internal/address enforces that inside a transaction.
type Address struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;not null;index" json:"owner_id"`
	FullName    string    `gorm:"column:full_name;not null" json:"full_name"`
	Phone       string    `gorm:"column:phone;not null" json:"phone"`
	FullAddress string    `gorm:"column:full_address;not null" json:"full_address"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}
