// Package models contains domain entities and business models for the account console
package models

import (
	"time"
)

type Account struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:255;not null;uniqueIndex:idx_accounts_name" json:"name"`
	Email            string     `gorm:"size:255;index:idx_accounts_email" json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	RealName         string     `gorm:"size:255" json:"real_name"`
	TokenSeed        string     `gorm:"size:64;not null" json:"-"` // Rotating seed all auth tokens derive from
	IsStaff          *bool      `gorm:"default:false;index:idx_accounts_is_staff" json:"is_staff"`
	RegisteredAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"registered_at"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relationships
	Options  []AccountOption  `gorm:"foreignKey:AccountID" json:"options,omitempty"`
	Sessions []AccountSession `gorm:"foreignKey:AccountID" json:"sessions,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID            *uint
	Name          *string
	Email         *string
	IsStaff       *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *Account) IsEmailConfirmed() bool {
	return a.EmailConfirmedAt != nil
}

// UserPage returns the wiki page title associated with the account.
func (a *Account) UserPage() string {
	return "User:" + a.Name
}
