// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountOptionRepositoryImpl implements AccountOptionRepository interface
type AccountOptionRepositoryImpl struct {
	*BaseRepository[models.AccountOption, models.AccountOptionFilter]
}

// NewAccountOptionRepository creates a new account option repository
func NewAccountOptionRepository(db *gorm.DB) AccountOptionRepository {
	return &AccountOptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AccountOption, models.AccountOptionFilter](db),
	}
}

// Get retrieves a single option row, or nil when the option is unset
func (r *AccountOptionRepositoryImpl) Get(ctx context.Context, accountID uint, name string) (*models.AccountOption, error) {
	db := r.getDB(ctx)

	var option models.AccountOption
	err := db.Where("account_id = ? AND name = ?", accountID, name).
		First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account option %q: %w", name, err)
	}

	return &option, nil
}

// Set writes an option value, inserting or overwriting as needed
func (r *AccountOptionRepositoryImpl) Set(ctx context.Context, accountID uint, name, value string) error {
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

	option := models.AccountOption{
		AccountID: accountID,
		Name:      name,
		Value:     value,
		UpdatedAt: utils.UTCNow(),
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&option).Error
	if err != nil {
		return fmt.Errorf("failed to set account option %q: %w", name, err)
	}

	return nil
}

// Delete removes the named options. Missing rows are not an error.
func (r *AccountOptionRepositoryImpl) Delete(ctx context.Context, accountID uint, names ...string) error {
	if len(names) == 0 {
		return nil
	}

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

	err = db.Where("account_id = ? AND name IN ?", accountID, names).
		Delete(&models.AccountOption{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete account options: %w", err)
	}

	return nil
}

// ListByAccount retrieves all option rows of an account
func (r *AccountOptionRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*models.AccountOption, error) {
	db := r.getDB(ctx)

	var options []*models.AccountOption
	err := db.Where("account_id = ?", accountID).
		Order("name ASC").
		Find(&options).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list account options: %w", err)
	}

	return options, nil
}
