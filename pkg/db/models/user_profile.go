package models

import "time"

// PrincipalUserID is the fixed identifier of the single local profile. The
// app supports exactly one account; registration fails once this row exists.
const PrincipalUserID = "principal"

// UserProfile is the singleton local account row.
//
// The password column is plaintext on purpose: the app is a teaching artifact
// and credential hashing is a documented follow-up for any production port.
type UserProfile struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	DisplayName string    `gorm:"column:display_name;not null" json:"display_name"`
	Email       string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password    string    `gorm:"column:password;not null" json:"-"`
	IsLoggedIn  bool      `gorm:"column:is_logged_in;not null;default:false" json:"is_logged_in"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}
