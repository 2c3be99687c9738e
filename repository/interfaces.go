// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/wikiforge/account-console/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByName(ctx context.Context, name string) (*models.Account, error)
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	// UpdatePasswordHash writes only the password hash column and reports how
	// many rows matched. Zero with a nil error means the account row is gone.
	UpdatePasswordHash(ctx context.Context, accountID uint, passwordHash string) (int64, error)
}

// TempAccountRepository defines operations for provisional registrations
type TempAccountRepository interface {
	Repository[models.TempAccount, models.TempAccountFilter]
	ByAccountID(ctx context.Context, accountID uint) (*models.TempAccount, error)
	ByName(ctx context.Context, name string) (*models.TempAccount, error)
	Delete(ctx context.Context, id uint) error
}

// AccountOptionRepository defines operations for per-account preference rows
type AccountOptionRepository interface {
	Get(ctx context.Context, accountID uint, name string) (*models.AccountOption, error)
	Set(ctx context.Context, accountID uint, name, value string) error
	Delete(ctx context.Context, accountID uint, names ...string) error
	ListByAccount(ctx context.Context, accountID uint) ([]*models.AccountOption, error)
}

// GlobalPreferenceRepository defines operations on the shared cross-wiki
// preference store
type GlobalPreferenceRepository interface {
	// SetDisabled writes the disabled flag and its date as one atomic pair.
	SetDisabled(ctx context.Context, accountID uint, when time.Time) error
	// ClearDisabled removes both rows of the pair.
	ClearDisabled(ctx context.Context, accountID uint) error
	IsDisabled(ctx context.Context, accountID uint) (bool, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByTarget(ctx context.Context, targetID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByPerformer(ctx context.Context, performerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// AccountSessionRepository defines operations for account sessions
type AccountSessionRepository interface {
	Repository[models.AccountSession, models.AccountSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.AccountSession, error)
	ListActiveSessionsByAccount(ctx context.Context, accountID uint) ([]*models.AccountSession, error)
	ExpireAllAccountSessions(ctx context.Context, accountID uint) error
	CleanupExpiredSessions(ctx context.Context) error
}
