package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
	testingutil "github.com/wikiforge/account-console/testing"
	"github.com/wikiforge/account-console/utils"
)

type repoEnv struct {
	db       *testingutil.TestDB
	fixtures *testingutil.TestFixtures
}

func newRepoEnv(t *testing.T) *repoEnv {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = testDB.TeardownTestDB()
	})

	return &repoEnv{
		db:       testDB,
		fixtures: testingutil.NewTestFixtures(testDB),
	}
}

func TestAccountRepository(t *testing.T) {
	env := newRepoEnv(t)
	repo := repository.NewAccountRepository(env.db.DB)
	ctx := context.Background()

	t.Run("ByNameRoundTrip", func(t *testing.T) {
		account, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		found, err := repo.ByName(ctx, account.Name)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, account.ID, found.ID)
	})

	t.Run("ByNameMissingIsNilNotError", func(t *testing.T) {
		found, err := repo.ByName(ctx, "No Such Account")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("ByEmailRoundTrip", func(t *testing.T) {
		account, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		found, err := repo.ByEmail(ctx, account.Email)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, account.ID, found.ID)
	})

	t.Run("UpdatePasswordHashReportsMatchedRows", func(t *testing.T) {
		account, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		affected, err := repo.UpdatePasswordHash(ctx, account.ID, "$2a$04$replacementhashvalue")
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		reloaded, err := repo.ByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$04$replacementhashvalue", reloaded.PasswordHash)
	})

	t.Run("UpdatePasswordHashMissingRow", func(t *testing.T) {
		affected, err := repo.UpdatePasswordHash(ctx, 999999, "$2a$04$replacementhashvalue")
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestAccountOptionRepository(t *testing.T) {
	env := newRepoEnv(t)
	repo := repository.NewAccountOptionRepository(env.db.DB)
	ctx := context.Background()

	account, err := env.fixtures.CreateTestAccount()
	require.NoError(t, err)

	t.Run("SetInsertsAndUpserts", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, account.ID, models.OptionAllowAdoption, "0"))

		option, err := repo.Get(ctx, account.ID, models.OptionAllowAdoption)
		require.NoError(t, err)
		require.NotNil(t, option)
		assert.Equal(t, "0", option.Value)

		// Same key again must update in place, not duplicate
		require.NoError(t, repo.Set(ctx, account.ID, models.OptionAllowAdoption, "1"))

		option, err = repo.Get(ctx, account.ID, models.OptionAllowAdoption)
		require.NoError(t, err)
		require.NotNil(t, option)
		assert.Equal(t, "1", option.Value)

		all, err := repo.ListByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("GetMissingIsNilNotError", func(t *testing.T) {
		option, err := repo.Get(ctx, account.ID, "never-written")
		require.NoError(t, err)
		assert.Nil(t, option)
	})

	t.Run("DeleteSeveralNames", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, account.ID, models.OptionDisabled, "1"))
		require.NoError(t, repo.Set(ctx, account.ID, models.OptionDisabledDate, "2026-01-01 00:00:00"))

		require.NoError(t, repo.Delete(ctx, account.ID, models.OptionDisabled, models.OptionDisabledDate))

		option, err := repo.Get(ctx, account.ID, models.OptionDisabled)
		require.NoError(t, err)
		assert.Nil(t, option)
	})

	t.Run("DeleteMissingIsNotAnError", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, account.ID, "never-written"))
	})
}

func TestGlobalPreferenceRepository(t *testing.T) {
	env := newRepoEnv(t)
	repo := repository.NewGlobalPreferenceRepository(env.db.DB)
	ctx := context.Background()

	account, err := env.fixtures.CreateTestAccount()
	require.NoError(t, err)

	t.Run("SetDisabledWritesThePair", func(t *testing.T) {
		require.NoError(t, repo.SetDisabled(ctx, account.ID, utils.UTCNow()))

		disabled, err := repo.IsDisabled(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, disabled)
	})

	t.Run("SetDisabledTwiceUpserts", func(t *testing.T) {
		require.NoError(t, repo.SetDisabled(ctx, account.ID, utils.UTCNow()))

		var count int64
		require.NoError(t, env.db.DB.Model(&models.GlobalPreference{}).
			Where("account_id = ?", account.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("ClearDisabledRemovesThePair", func(t *testing.T) {
		require.NoError(t, repo.ClearDisabled(ctx, account.ID))

		disabled, err := repo.IsDisabled(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, disabled)

		var count int64
		require.NoError(t, env.db.DB.Model(&models.GlobalPreference{}).
			Where("account_id = ?", account.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("NeverDisabledReportsFalse", func(t *testing.T) {
		other, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		disabled, err := repo.IsDisabled(ctx, other.ID)
		require.NoError(t, err)
		assert.False(t, disabled)
	})
}

func TestAccountSessionRepository(t *testing.T) {
	env := newRepoEnv(t)
	repo := repository.NewAccountSessionRepository(env.db.DB)
	ctx := context.Background()

	t.Run("BySessionTokenRoundTrip", func(t *testing.T) {
		account, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)
		session, err := env.fixtures.CreateTestSession(account.ID)
		require.NoError(t, err)

		found, err := repo.BySessionToken(ctx, session.SessionToken)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, account.ID, found.AccountID)
	})

	t.Run("ExpireAllAccountSessionsIsScoped", func(t *testing.T) {
		account, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)
		bystander, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = env.fixtures.CreateTestSession(account.ID)
		require.NoError(t, err)
		_, err = env.fixtures.CreateTestSession(account.ID)
		require.NoError(t, err)
		_, err = env.fixtures.CreateTestSession(bystander.ID)
		require.NoError(t, err)

		require.NoError(t, repo.ExpireAllAccountSessions(ctx, account.ID))

		expired, err := repo.ListActiveSessionsByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Empty(t, expired)

		untouched, err := repo.ListActiveSessionsByAccount(ctx, bystander.ID)
		require.NoError(t, err)
		assert.Len(t, untouched, 1)
	})

	t.Run("CleanupExpiredSessionsDeactivatesStaleRows", func(t *testing.T) {
		account, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		live, err := env.fixtures.CreateTestSession(account.ID)
		require.NoError(t, err)

		stale := &models.AccountSession{
			CorrelationID: uuid.New(),
			AccountID:     account.ID,
			SessionToken:  "stale-session-token",
			ExpiresAt:     time.Now().Add(-48 * time.Hour),
			IsActive:      utils.ToPtr(true),
		}
		require.NoError(t, env.db.DB.Create(stale).Error)

		require.NoError(t, repo.CleanupExpiredSessions(ctx))

		var reloaded models.AccountSession
		require.NoError(t, env.db.DB.First(&reloaded, stale.ID).Error)
		require.NotNil(t, reloaded.IsActive)
		assert.False(t, *reloaded.IsActive)

		kept, err := repo.BySessionToken(ctx, live.SessionToken)
		require.NoError(t, err)
		assert.NotNil(t, kept)
	})
}

func TestAuditLogRepository(t *testing.T) {
	env := newRepoEnv(t)
	repo := repository.NewAuditLogRepository(env.db.DB)
	ctx := context.Background()

	staff, err := env.fixtures.CreateStaffAccount()
	require.NoError(t, err)
	target, err := env.fixtures.CreateTestAccount()
	require.NoError(t, err)

	// Explicit timestamps so the newest-first ordering is deterministic
	base := utils.UTCNow().Add(-time.Hour)
	actions := []string{
		models.AuditActionMailChange,
		models.AuditActionPasswordChange,
		models.AuditActionCloseAccount,
	}
	for i, action := range actions {
		entry := &models.AuditLog{
			CorrelationID: uuid.New(),
			Action:        action,
			PerformerID:   staff.ID,
			TargetID:      target.ID,
			TargetPage:    target.UserPage(),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(ctx, entry))
	}

	t.Run("ListByTargetNewestFirst", func(t *testing.T) {
		entries, err := repo.ListByTarget(ctx, target.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, models.AuditActionCloseAccount, entries[0].Action)
		assert.Equal(t, models.AuditActionMailChange, entries[2].Action)

		require.NotNil(t, entries[0].Performer)
		assert.Equal(t, staff.Name, entries[0].Performer.Name)
	})

	t.Run("ListByTargetPaginates", func(t *testing.T) {
		entries, err := repo.ListByTarget(ctx, target.ID, 1, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.AuditActionPasswordChange, entries[0].Action)
	})

	t.Run("ListByPerformer", func(t *testing.T) {
		entries, err := repo.ListByPerformer(ctx, staff.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("ListSecurityEventsFiltersActions", func(t *testing.T) {
		entries, err := repo.ListSecurityEvents(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, entry := range entries {
			assert.True(t, entry.IsSecurityEvent())
		}
	})

	t.Run("CountByTarget", func(t *testing.T) {
		count, err := repo.Count(ctx, models.AuditLogFilter{TargetID: utils.ToPtr(target.ID)})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
