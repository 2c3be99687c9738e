// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GlobalPreferenceRepositoryImpl implements GlobalPreferenceRepository interface
type GlobalPreferenceRepositoryImpl struct {
	*BaseRepository[models.GlobalPreference, models.GlobalPreferenceFilter]
}

// NewGlobalPreferenceRepository creates a new global preference repository
func NewGlobalPreferenceRepository(db *gorm.DB) GlobalPreferenceRepository {
	return &GlobalPreferenceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.GlobalPreference, models.GlobalPreferenceFilter](db),
	}
}

// SetDisabled writes the disabled flag and its date as one atomic pair
func (r *GlobalPreferenceRepositoryImpl) SetDisabled(ctx context.Context, accountID uint, when time.Time) error {
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

	rows := []models.GlobalPreference{
		{AccountID: accountID, Property: models.OptionDisabled, Value: "1", UpdatedAt: utils.UTCNow()},
		{AccountID: accountID, Property: models.OptionDisabledDate, Value: when.UTC().Format(utils.DBTimestampLayout), UpdatedAt: utils.UTCNow()},
	}

	for i := range rows {
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "property"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows[i]).Error
		if err != nil {
			return fmt.Errorf("failed to set global disabled preference: %w", err)
		}
	}

	return nil
}

// ClearDisabled removes both rows of the disabled pair
func (r *GlobalPreferenceRepositoryImpl) ClearDisabled(ctx context.Context, accountID uint) error {
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

	err = db.Where("account_id = ? AND property IN ?",
		accountID, []string{models.OptionDisabled, models.OptionDisabledDate}).
		Delete(&models.GlobalPreference{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear global disabled preference: %w", err)
	}

	return nil
}

// IsDisabled reports whether the shared store marks the account as disabled
func (r *GlobalPreferenceRepositoryImpl) IsDisabled(ctx context.Context, accountID uint) (bool, error) {
	db := r.getDB(ctx)

	var row models.GlobalPreference
	err := db.Where("account_id = ? AND property = ?", accountID, models.OptionDisabled).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read global disabled preference: %w", err)
	}

	return row.Value != "" && row.Value != "0", nil
}
