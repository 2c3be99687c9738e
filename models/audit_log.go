// Package models contains domain entities and business models for the account console
package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one completed account mutation under the editaccnt log type.
type AuditLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CorrelationID uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_correlation_id" json:"correlation_id"`
	Action        string    `gorm:"size:32;not null;index:idx_audit_action" json:"action"`
	PerformerID   uint      `gorm:"not null;index:idx_audit_performer_id" json:"performer_id"`
	Performer     *Account  `gorm:"foreignKey:PerformerID;references:ID" json:"performer,omitempty"`
	TargetID      uint      `gorm:"not null;index:idx_audit_target_id" json:"target_id"`
	Target        *Account  `gorm:"foreignKey:TargetID;references:ID" json:"target,omitempty"`
	TargetPage    string    `gorm:"size:255;not null" json:"target_page"`
	Reason        *string   `gorm:"type:text" json:"reason,omitempty"`
	IPAddress     *string   `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent     *string   `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID     *string   `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants, one per logged mutation
const (
	AuditActionMailChange     = "mailchange"
	AuditActionPasswordChange = "passchange"
	AuditActionRealNameChange = "realnamechange"
	AuditActionCloseAccount   = "closeaccnt"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	Action        *string
	PerformerID   *uint
	TargetID      *uint
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionPasswordChange: true,
		AuditActionCloseAccount:   true,
	}
	return securityActions[a.Action]
}
