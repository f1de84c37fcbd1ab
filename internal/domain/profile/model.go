package profile

import "time"

// Profile is a person whose records live in a vault. A user account owns one
// or more profiles; the primary one represents the account holder.
type Profile struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"not null;index" json:"user_id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Phone       string    `gorm:"index" json:"phone,omitempty"`
	IsPrimary   bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "user_profiles"
}
