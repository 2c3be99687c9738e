// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/wikiforge/account-console/models"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByName retrieves an account by its canonical name
func (r *AccountRepositoryImpl) ByName(ctx context.Context, name string) (*models.Account, error) {
	filter := models.AccountFilter{Name: &name}
	accounts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by name: %w", err)
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// ByEmail retrieves an account by email address
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	filter := models.AccountFilter{Email: &email}
	accounts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// UpdatePasswordHash writes only the password hash column for one account row
func (r *AccountRepositoryImpl) UpdatePasswordHash(ctx context.Context, accountID uint, passwordHash string) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
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

	result := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		err = fmt.Errorf("failed to update password hash: %w", result.Error)
		return 0, err
	}

	return result.RowsAffected, nil
}

// applyFilter applies filter conditions to the query
func (r *AccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.IsStaff != nil {
		query = query.Where("is_staff = ?", *filter.IsStaff)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves accounts based on filter criteria
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Account{})

	query = r.applyFilter(query, filter)

	// Apply ordering (default to id DESC)
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

	var accounts []*models.Account
	err := query.Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Count returns the number of accounts matching the filter
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Account{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any account matching the filter exists
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
