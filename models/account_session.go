// Package models contains domain entities and business models for the account console
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/wikiforge/account-console/utils"
)

type AccountSession struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CorrelationID  uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_correlation_id" json:"correlation_id"`
	AccountID      uint      `gorm:"not null;index:idx_sessions_account_id" json:"account_id"`
	Account        Account   `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`
	SessionToken   string    `gorm:"size:255;not null;uniqueIndex:idx_sessions_session_token" json:"-"` // Never serialize token
	RefreshToken   *string   `gorm:"size:255;uniqueIndex:idx_sessions_refresh_token" json:"-"`          // Never serialize refresh token
	IPAddress      *string   `gorm:"type:inet;index:idx_sessions_ip_address" json:"ip_address,omitempty"`
	UserAgent      *string   `gorm:"type:text" json:"user_agent,omitempty"`
	IsActive       *bool     `gorm:"default:true;index:idx_sessions_is_active" json:"is_active"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	LastAccessedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_sessions_last_accessed" json:"last_accessed_at"`
	ExpiresAt      time.Time `gorm:"not null;index:idx_sessions_expires_at" json:"expires_at"`
}

func (AccountSession) TableName() string {
	return "account_sessions"
}

// AccountSessionFilter represents filter criteria for session queries
type AccountSessionFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	AccountID     *uint
	IsActive      *bool
	IPAddress     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

func (s *AccountSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *AccountSession) IsValid() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}
