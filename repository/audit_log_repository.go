// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/wikiforge/account-console/models"
	"gorm.io/gorm"
)

// AuditLogRepositoryImpl implements AuditLogRepository interface
type AuditLogRepositoryImpl struct {
	*BaseRepository[models.AuditLog, models.AuditLogFilter]
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AuditLog, models.AuditLogFilter](db),
	}
}

// ListByTarget retrieves audit logs recorded against an account with pagination
func (r *AuditLogRepositoryImpl) ListByTarget(ctx context.Context, targetID uint, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)

	var logs []*models.AuditLog
	err := db.Where("target_id = ?", targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Performer").
		Find(&logs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by target: %w", err)
	}

	return logs, nil
}

// ListByPerformer retrieves audit logs recorded by a staff account with pagination
func (r *AuditLogRepositoryImpl) ListByPerformer(ctx context.Context, performerID uint, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)

	var logs []*models.AuditLog
	err := db.Where("performer_id = ?", performerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Target").
		Find(&logs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by performer: %w", err)
	}

	return logs, nil
}

// ListSecurityEvents retrieves security-related audit log entries with pagination
func (r *AuditLogRepositoryImpl) ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)

	securityActions := []string{
		models.AuditActionPasswordChange,
		models.AuditActionCloseAccount,
	}

	var logs []*models.AuditLog
	err := db.Where("action IN ?", securityActions).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Performer").
		Preload("Target").
		Find(&logs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list security audit logs: %w", err)
	}

	return logs, nil
}

// applyFilter applies filter conditions to the query
func (r *AuditLogRepositoryImpl) applyFilter(query *gorm.DB, filter models.AuditLogFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		query = query.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.PerformerID != nil {
		query = query.Where("performer_id = ?", *filter.PerformerID)
	}
	if filter.TargetID != nil {
		query = query.Where("target_id = ?", *filter.TargetID)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves audit logs based on filter criteria
func (r *AuditLogRepositoryImpl) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AuditLog{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var logs []*models.AuditLog
	err := query.Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// Count returns the number of audit logs matching the filter
func (r *AuditLogRepositoryImpl) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AuditLog{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any audit log matching the filter exists
func (r *AuditLogRepositoryImpl) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
