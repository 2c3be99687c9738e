// Package models contains domain entities and business models for the account console
package models

import (
	"time"
)

// GlobalPreference is a preference row in the shared cross-wiki store. Closing
// an account mirrors the disabled flags here so every wiki sees them.
type GlobalPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_global_preferences_account_property,priority:1" json:"account_id"`
	Property  string    `gorm:"size:255;not null;uniqueIndex:idx_global_preferences_account_property,priority:2" json:"property"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (GlobalPreference) TableName() string {
	return "global_preferences"
}

// GlobalPreferenceFilter represents filter criteria for global preference queries
type GlobalPreferenceFilter struct {
	ID        *uint
	AccountID *uint
	Property  *string
}
