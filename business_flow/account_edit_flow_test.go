package businessflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikiforge/account-console/app/dto"
	businessflow "github.com/wikiforge/account-console/business_flow"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
)

// vanishingAccountRepo reports zero affected rows on password writes
type vanishingAccountRepo struct {
	repository.AccountRepository
}

func (r *vanishingAccountRepo) UpdatePasswordHash(ctx context.Context, accountID uint, passwordHash string) (int64, error) {
	return 0, nil
}

func TestGetAccount(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.editFlow()
	ctx := context.Background()

	account, err := env.fixtures.CreateTestAccount()
	require.NoError(t, err)

	t.Run("ReturnsAccountView", func(t *testing.T) {
		result, err := flow.GetAccount(ctx, account.Name)
		require.NoError(t, err)
		assert.Equal(t, account.Name, result.Account.Name)
		assert.Equal(t, account.Email, result.Account.Email)
		assert.True(t, result.Account.EmailConfirmed)
		assert.False(t, result.Account.IsDisabled)
		assert.True(t, result.Account.AllowAdoption)
		assert.False(t, result.Account.IsProvisional)
	})

	t.Run("UnderscoresResolveToSpaces", func(t *testing.T) {
		underscored := "" // Name with spaces swapped for underscores
		for _, r := range account.Name {
			if r == ' ' {
				underscored += "_"
			} else {
				underscored += string(r)
			}
		}

		result, err := flow.GetAccount(ctx, underscored)
		require.NoError(t, err)
		assert.Equal(t, account.Name, result.Account.Name)
	})

	t.Run("UnknownName", func(t *testing.T) {
		_, err := flow.GetAccount(ctx, "No Such Account")
		assert.True(t, businessflow.IsAccountNotFound(err))
		assert.True(t, businessflow.IsValidationFailure(err))
	})

	t.Run("InvalidName", func(t *testing.T) {
		_, err := flow.GetAccount(ctx, "Bad#Name")
		assert.True(t, businessflow.IsAccountNameInvalid(err))
	})

	t.Run("ProvisionalAccountIsFlagged", func(t *testing.T) {
		_, temp, err := env.fixtures.CreateProvisionalAccount()
		require.NoError(t, err)

		result, err := flow.GetAccount(ctx, temp.Name)
		require.NoError(t, err)
		assert.True(t, result.Account.IsProvisional)
		assert.Equal(t, temp.Name, result.Account.Name)
	})
}

func TestSetEmail(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.editFlow()
	ctx := context.Background()

	staff, err := env.fixtures.CreateStaffAccount()
	require.NoError(t, err)

	t.Run("ChangesEmail", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		result, err := flow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name:     target.Name,
			NewEmail: "changed@example.com",
			Reason:   "owner requested",
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, target.Name, result.Target)

		reloaded, err := env.accountRepo.ByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "changed@example.com", reloaded.Email)
		assert.NotNil(t, reloaded.EmailConfirmedAt)

		entries := env.auditEntries(t, target.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.AuditActionMailChange, entries[0].Action)
		assert.Equal(t, staff.ID, entries[0].PerformerID)
		require.NotNil(t, entries[0].Reason)
		assert.Equal(t, "owner requested", *entries[0].Reason)
	})

	t.Run("ClearsEmail", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = flow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name: target.Name,
		}, testMetadata())
		require.NoError(t, err)

		reloaded, err := env.accountRepo.ByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.Email)
		assert.Nil(t, reloaded.EmailConfirmedAt)
	})

	t.Run("ClearsPendingEmail", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)
		require.NoError(t, env.fixtures.SetAccountOption(target.ID, models.OptionNewEmail, "waiting@example.com"))

		_, err = flow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name:     target.Name,
			NewEmail: "final@example.com",
		}, testMetadata())
		require.NoError(t, err)

		option, err := env.optionRepo.Get(ctx, target.ID, models.OptionNewEmail)
		require.NoError(t, err)
		assert.Nil(t, option)
	})

	t.Run("MalformedEmail", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = flow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name:     target.Name,
			NewEmail: "not-an-email",
		}, testMetadata())
		assert.True(t, businessflow.IsEmailInvalid(err))
		assert.Empty(t, env.auditEntries(t, target.ID))
	})

	t.Run("ProvisionalRequiresEmail", func(t *testing.T) {
		_, temp, err := env.fixtures.CreateProvisionalAccount()
		require.NoError(t, err)

		_, err = flow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name: temp.Name,
		}, testMetadata())
		assert.True(t, businessflow.IsEmailRequiredForProvisional(err))
	})

	t.Run("PromotesProvisionalRegistration", func(t *testing.T) {
		account, temp, err := env.fixtures.CreateProvisionalAccount()
		require.NoError(t, err)

		_, err = flow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name:     temp.Name,
			NewEmail: "confirmed@example.com",
		}, testMetadata())
		require.NoError(t, err)

		reloaded, err := env.accountRepo.ByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "confirmed@example.com", reloaded.Email)
		assert.NotNil(t, reloaded.EmailConfirmedAt)
		assert.Equal(t, temp.Name, reloaded.Name)

		gone, err := env.tempRepo.ByAccountID(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, gone.IsLive())
	})

	t.Run("AuditFailureFailsTheOperation", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		brokenFlow := businessflow.NewAccountEditFlow(
			env.accountRepo,
			env.tempRepo,
			env.optionRepo,
			env.prefRepo,
			&failingAuditRepo{AuditLogRepository: env.auditRepo},
			env.credentialSvc,
			env.db,
		)

		_, err = brokenFlow.SetEmail(ctx, staff.ID, &dto.SetEmailRequest{
			Name:     target.Name,
			NewEmail: "audited@example.com",
		}, testMetadata())
		assert.True(t, businessflow.IsStorageFailure(err))
	})
}

func TestSetPassword(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.editFlow()
	ctx := context.Background()

	staff, err := env.fixtures.CreateStaffAccount()
	require.NoError(t, err)

	t.Run("ChangesPassword", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)
		oldHash := target.PasswordHash

		_, err = flow.SetPassword(ctx, staff.ID, &dto.SetPasswordRequest{
			Name:        target.Name,
			NewPassword: "FreshPass123",
		}, testMetadata())
		require.NoError(t, err)

		reloaded, err := env.accountRepo.ByID(ctx, target.ID)
		require.NoError(t, err)
		assert.NotEqual(t, oldHash, reloaded.PasswordHash)
		assert.NoError(t, env.credentialSvc.ComparePassword(reloaded.PasswordHash, "FreshPass123"))

		entries := env.auditEntries(t, target.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.AuditActionPasswordChange, entries[0].Action)
	})

	t.Run("MergesProvisionalIdentity", func(t *testing.T) {
		account, temp, err := env.fixtures.CreateProvisionalAccount()
		require.NoError(t, err)

		// A registration may be pending under a different name than the
		// permanent row carries
		temp.Name = account.Name + " Renamed"
		require.NoError(t, env.tempRepo.Update(ctx, temp))

		result, err := flow.SetPassword(ctx, staff.ID, &dto.SetPasswordRequest{
			Name:        temp.Name,
			NewPassword: "FreshPass456",
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, temp.Name, result.Target)

		// The permanent account takes the provisional name and credential
		reloaded, err := env.accountRepo.ByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, temp.Name, reloaded.Name)
		assert.NoError(t, env.credentialSvc.ComparePassword(reloaded.PasswordHash, "FreshPass456"))

		gone, err := env.tempRepo.ByAccountID(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, gone.IsLive())
	})

	t.Run("MissingRowIsNotPersisted", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		brokenFlow := businessflow.NewAccountEditFlow(
			&vanishingAccountRepo{AccountRepository: env.accountRepo},
			env.tempRepo,
			env.optionRepo,
			env.prefRepo,
			env.auditRepo,
			env.credentialSvc,
			env.db,
		)

		_, err = brokenFlow.SetPassword(ctx, staff.ID, &dto.SetPasswordRequest{
			Name:        target.Name,
			NewPassword: "FreshPass789",
		}, testMetadata())
		assert.True(t, businessflow.IsNotPersistedFailure(err))
		assert.Empty(t, env.auditEntries(t, target.ID))
	})
}

func TestSetRealName(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.editFlow()
	ctx := context.Background()

	staff, err := env.fixtures.CreateStaffAccount()
	require.NoError(t, err)

	t.Run("ChangesRealName", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = flow.SetRealName(ctx, staff.ID, &dto.SetRealNameRequest{
			Name:        target.Name,
			NewRealName: "New Real Name",
		}, testMetadata())
		require.NoError(t, err)

		reloaded, err := env.accountRepo.ByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "New Real Name", reloaded.RealName)

		entries := env.auditEntries(t, target.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.AuditActionRealNameChange, entries[0].Action)
	})

	t.Run("ClearsRealName", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = flow.SetRealName(ctx, staff.ID, &dto.SetRealNameRequest{
			Name: target.Name,
		}, testMetadata())
		require.NoError(t, err)

		reloaded, err := env.accountRepo.ByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.RealName)
	})

	t.Run("UnverifiedChangeDoesNotAudit", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		brokenFlow := businessflow.NewAccountEditFlow(
			&stubbornAccountRepo{AccountRepository: env.accountRepo},
			env.tempRepo,
			env.optionRepo,
			env.prefRepo,
			env.auditRepo,
			env.credentialSvc,
			env.db,
		)

		_, err = brokenFlow.SetRealName(ctx, staff.ID, &dto.SetRealNameRequest{
			Name:        target.Name,
			NewRealName: "Never Applied",
		}, testMetadata())
		assert.True(t, businessflow.IsVerificationFailure(err))
		assert.Empty(t, env.auditEntries(t, target.ID))
	})
}

func TestFlagOperations(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.editFlow()
	ctx := context.Background()

	staff, err := env.fixtures.CreateStaffAccount()
	require.NoError(t, err)

	t.Run("ClearUnsubscribe", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)
		require.NoError(t, env.fixtures.SetAccountOption(target.ID, models.OptionUnsubscribed, "1"))

		_, err = flow.ClearUnsubscribe(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		require.NoError(t, err)

		option, err := env.optionRepo.Get(ctx, target.ID, models.OptionUnsubscribed)
		require.NoError(t, err)
		assert.Nil(t, option)
	})

	t.Run("ClearUnsubscribeWithoutFlagSucceeds", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = flow.ClearUnsubscribe(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		assert.NoError(t, err)
	})

	t.Run("ClearDisable", func(t *testing.T) {
		target, err := env.fixtures.CreateDisabledAccount()
		require.NoError(t, err)

		_, err = flow.ClearDisable(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		require.NoError(t, err)

		option, err := env.optionRepo.Get(ctx, target.ID, models.OptionDisabled)
		require.NoError(t, err)
		assert.Nil(t, option)

		dateOption, err := env.optionRepo.Get(ctx, target.ID, models.OptionDisabledDate)
		require.NoError(t, err)
		assert.Nil(t, dateOption)

		disabled, err := env.prefRepo.IsDisabled(ctx, target.ID)
		require.NoError(t, err)
		assert.False(t, disabled)
	})

	t.Run("ToggleAdoptionFlipsFromDefault", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		// The flag defaults to set, so the first toggle clears it
		result, err := flow.ToggleAdoption(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		require.NoError(t, err)
		assert.False(t, result.AllowAdoption)

		result, err = flow.ToggleAdoption(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		require.NoError(t, err)
		assert.True(t, result.AllowAdoption)
	})

	t.Run("FlagOperationsLeaveNoAuditTrail", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		_, err = flow.ToggleAdoption(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		require.NoError(t, err)
		_, err = flow.ClearUnsubscribe(ctx, staff.ID, &dto.AccountFlagRequest{Name: target.Name}, testMetadata())
		require.NoError(t, err)

		assert.Empty(t, env.auditEntries(t, target.ID))
	})
}

func TestCloseRequested(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.editFlow()
	ctx := context.Background()

	t.Run("DefaultsToFalse", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)

		result, err := flow.CloseRequested(ctx, target.Name)
		require.NoError(t, err)
		assert.False(t, result.Requested)
	})

	t.Run("ReportsOwnerRequest", func(t *testing.T) {
		target, err := env.fixtures.CreateTestAccount()
		require.NoError(t, err)
		require.NoError(t, env.fixtures.SetAccountOption(target.ID, models.OptionRequestedClosure, "1"))

		result, err := flow.CloseRequested(ctx, target.Name)
		require.NoError(t, err)
		assert.True(t, result.Requested)
	})
}
