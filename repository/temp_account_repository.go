// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/wikiforge/account-console/models"
	"gorm.io/gorm"
)

// TempAccountRepositoryImpl implements TempAccountRepository interface
type TempAccountRepositoryImpl struct {
	*BaseRepository[models.TempAccount, models.TempAccountFilter]
}

// NewTempAccountRepository creates a new temp account repository
func NewTempAccountRepository(db *gorm.DB) TempAccountRepository {
	return &TempAccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TempAccount, models.TempAccountFilter](db),
	}
}

// ByAccountID retrieves the provisional registration backing an account, if any
func (r *TempAccountRepositoryImpl) ByAccountID(ctx context.Context, accountID uint) (*models.TempAccount, error) {
	filter := models.TempAccountFilter{AccountID: &accountID}
	records, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find temp account by account ID: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

// ByName retrieves a provisional registration by its pending name
func (r *TempAccountRepositoryImpl) ByName(ctx context.Context, name string) (*models.TempAccount, error) {
	filter := models.TempAccountFilter{Name: &name}
	records, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find temp account by name: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

// Delete removes a provisional registration once it has been promoted
func (r *TempAccountRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.TempAccount{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete temp account: %w", err)
	}

	return nil
}

// applyFilter applies filter conditions to the query
func (r *TempAccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.TempAccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	return query
}

// ByFilter retrieves temp accounts based on filter criteria
func (r *TempAccountRepositoryImpl) ByFilter(ctx context.Context, filter models.TempAccountFilter, orderBy string, limit, offset int) ([]*models.TempAccount, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TempAccount{})

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

	var records []*models.TempAccount
	err := query.Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of temp accounts matching the filter
func (r *TempAccountRepositoryImpl) Count(ctx context.Context, filter models.TempAccountFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TempAccount{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any temp account matching the filter exists
func (r *TempAccountRepositoryImpl) Exists(ctx context.Context, filter models.TempAccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
