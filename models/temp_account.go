// Package models contains domain entities and business models for the account console
package models

import (
	"time"
)

// TempAccount is a provisional registration that has not confirmed an email
// address yet. Staff edits that supply an address promote it to a full account.
type TempAccount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AccountID    uint      `gorm:"not null;uniqueIndex:idx_temp_accounts_account_id" json:"account_id"`
	Account      *Account  `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`
	Name         string    `gorm:"size:255;not null;index:idx_temp_accounts_name" json:"name"`
	Email        string    `gorm:"size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TempAccount) TableName() string {
	return "temp_accounts"
}

// TempAccountFilter represents filter criteria for temp account queries
type TempAccountFilter struct {
	ID        *uint
	AccountID *uint
	Name      *string
	Email     *string
}

// IsLive reports whether the record refers to an existing provisional
// registration. Lookups return nil when no row matches, so pointer receivers
// must tolerate nil.
func (t *TempAccount) IsLive() bool {
	return t != nil && t.ID != 0
}
