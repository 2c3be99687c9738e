package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/app/services"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
	"github.com/wikiforge/account-console/utils"
	"gorm.io/gorm"
)

// AccountEditFlow covers the staff-surface account mutations short of closure
type AccountEditFlow interface {
	GetAccount(ctx context.Context, name string) (*dto.GetAccountResponse, error)
	SetEmail(ctx context.Context, performerID uint, req *dto.SetEmailRequest, metadata *ClientMetadata) (*dto.MutationResponse, error)
	SetPassword(ctx context.Context, performerID uint, req *dto.SetPasswordRequest, metadata *ClientMetadata) (*dto.MutationResponse, error)
	SetRealName(ctx context.Context, performerID uint, req *dto.SetRealNameRequest, metadata *ClientMetadata) (*dto.MutationResponse, error)
	ClearUnsubscribe(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *ClientMetadata) (*dto.MutationResponse, error)
	ClearDisable(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *ClientMetadata) (*dto.MutationResponse, error)
	ToggleAdoption(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *ClientMetadata) (*dto.ToggleAdoptionResponse, error)
	CloseRequested(ctx context.Context, name string) (*dto.CloseRequestedResponse, error)
}

type AccountEditFlowImpl struct {
	accountRepo   repository.AccountRepository
	tempRepo      repository.TempAccountRepository
	optionRepo    repository.AccountOptionRepository
	prefRepo      repository.GlobalPreferenceRepository
	auditRepo     repository.AuditLogRepository
	credentialSvc services.CredentialService
	validator     *validator.Validate
	db            *gorm.DB
}

// NewAccountEditFlow creates a new account edit flow instance
func NewAccountEditFlow(
	accountRepo repository.AccountRepository,
	tempRepo repository.TempAccountRepository,
	optionRepo repository.AccountOptionRepository,
	prefRepo repository.GlobalPreferenceRepository,
	auditRepo repository.AuditLogRepository,
	credentialSvc services.CredentialService,
	db *gorm.DB,
) AccountEditFlow {
	return &AccountEditFlowImpl{
		accountRepo:   accountRepo,
		tempRepo:      tempRepo,
		optionRepo:    optionRepo,
		prefRepo:      prefRepo,
		auditRepo:     auditRepo,
		credentialSvc: credentialSvc,
		validator:     validator.New(),
		db:            db,
	}
}

// GetAccount returns the staff view of an account
func (f *AccountEditFlowImpl) GetAccount(ctx context.Context, name string) (*dto.GetAccountResponse, error) {
	target, temp, err := f.resolveTarget(ctx, name)
	if err != nil {
		return nil, err
	}

	options, err := f.optionRepo.ListByAccount(ctx, target.ID)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to load account options", err)
	}

	return &dto.GetAccountResponse{
		Message: "Account retrieved",
		Account: ToAccountDTO(target, temp, options),
	}, nil
}

// SetEmail changes or clears the target's email address. Supplying an address
// to a provisional registration promotes it to a full account.
func (f *AccountEditFlowImpl) SetEmail(ctx context.Context, performerID uint, req *dto.SetEmailRequest, metadata *ClientMetadata) (*dto.MutationResponse, error) {
	target, temp, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	newEmail := strings.TrimSpace(req.NewEmail)
	if newEmail != "" {
		if err := f.validator.Var(newEmail, "email"); err != nil {
			return nil, NewMutationError(FailureValidation, "email address is malformed", ErrEmailInvalid)
		}
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if temp.IsLive() {
			// A provisional registration has no confirmed address to clear
			if newEmail == "" {
				return NewMutationError(FailureValidation, "a provisional registration requires a new email address", ErrEmailRequiredForProvisional)
			}
			return f.promoteProvisional(txCtx, target, temp, newEmail)
		}

		target.Email = newEmail
		if newEmail != "" {
			target.EmailConfirmedAt = utils.UTCNowPtr()
		} else {
			target.EmailConfirmedAt = nil
		}
		target.UpdatedAt = utils.UTCNow()
		if err := f.accountRepo.Update(txCtx, target); err != nil {
			return NewMutationError(FailureStorage, "failed to store email change", err)
		}

		// A staff-confirmed change supersedes any address awaiting confirmation
		if err := f.optionRepo.Delete(txCtx, target.ID, models.OptionNewEmail); err != nil {
			return NewMutationError(FailureStorage, "failed to clear pending email", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Read the committed row back before claiming success
	reloaded, err := f.accountRepo.ByID(ctx, target.ID)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to reload account", err)
	}
	if reloaded == nil || reloaded.Email != newEmail {
		return nil, NewMutationError(FailureVerification, "email change did not persist", ErrEmailNotApplied)
	}

	if err := recordMutation(ctx, f.auditRepo, models.AuditActionMailChange, performerID, reloaded, req.Reason, metadata); err != nil {
		return nil, NewMutationError(FailureStorage, "audit entry could not be recorded", err)
	}

	message := fmt.Sprintf("Email address of %s has been updated", reloaded.Name)
	if newEmail == "" {
		message = fmt.Sprintf("Email address of %s has been cleared", reloaded.Name)
	}
	return &dto.MutationResponse{Message: message, Target: reloaded.Name}, nil
}

// SetPassword sets a new password on the target account
func (f *AccountEditFlowImpl) SetPassword(ctx context.Context, performerID uint, req *dto.SetPasswordRequest, metadata *ClientMetadata) (*dto.MutationResponse, error) {
	target, temp, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	hash, err := f.credentialSvc.HashPassword(req.NewPassword)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to hash password", err)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		affected, err := f.accountRepo.UpdatePasswordHash(txCtx, target.ID, hash)
		if err != nil {
			return NewMutationError(FailureStorage, "failed to store password", err)
		}
		if affected == 0 {
			return NewMutationError(FailureNotPersisted, "account row does not exist in storage", ErrAccountNotPersisted)
		}

		// A password set by staff folds the provisional identity onto the
		// permanent account. The account takes the provisional name and the
		// registration row is retired.
		if temp.IsLive() {
			temp.PasswordHash = hash
			if err := f.mergeProvisional(txCtx, target, temp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := recordMutation(ctx, f.auditRepo, models.AuditActionPasswordChange, performerID, target, req.Reason, metadata); err != nil {
		return nil, NewMutationError(FailureStorage, "audit entry could not be recorded", err)
	}

	return &dto.MutationResponse{
		Message: fmt.Sprintf("Password of %s has been changed", displayName(target, temp)),
		Target:  displayName(target, temp),
	}, nil
}

// SetRealName changes or clears the target's real name
func (f *AccountEditFlowImpl) SetRealName(ctx context.Context, performerID uint, req *dto.SetRealNameRequest, metadata *ClientMetadata) (*dto.MutationResponse, error) {
	target, temp, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	newRealName := strings.TrimSpace(req.NewRealName)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		target.RealName = newRealName
		target.UpdatedAt = utils.UTCNow()
		if err := f.accountRepo.Update(txCtx, target); err != nil {
			return NewMutationError(FailureStorage, "failed to store real name change", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := f.accountRepo.ByID(ctx, target.ID)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to reload account", err)
	}
	if reloaded == nil || reloaded.RealName != newRealName {
		return nil, NewMutationError(FailureVerification, "real name change did not persist", ErrRealNameNotApplied)
	}

	if err := recordMutation(ctx, f.auditRepo, models.AuditActionRealNameChange, performerID, reloaded, req.Reason, metadata); err != nil {
		return nil, NewMutationError(FailureStorage, "audit entry could not be recorded", err)
	}

	return &dto.MutationResponse{
		Message: fmt.Sprintf("Real name of %s has been updated", displayName(reloaded, temp)),
		Target:  displayName(reloaded, temp),
	}, nil
}

// ClearUnsubscribe removes the mail opt-out flag
func (f *AccountEditFlowImpl) ClearUnsubscribe(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *ClientMetadata) (*dto.MutationResponse, error) {
	target, temp, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	if err := f.optionRepo.Delete(ctx, target.ID, models.OptionUnsubscribed); err != nil {
		return nil, NewMutationError(FailureStorage, "failed to clear unsubscribe flag", err)
	}

	return &dto.MutationResponse{
		Message: fmt.Sprintf("%s is subscribed to email again", displayName(target, temp)),
		Target:  displayName(target, temp),
	}, nil
}

// ClearDisable removes the disabled markers from the account and the shared
// preference store
func (f *AccountEditFlowImpl) ClearDisable(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *ClientMetadata) (*dto.MutationResponse, error) {
	target, temp, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.optionRepo.Delete(txCtx, target.ID, models.OptionDisabled, models.OptionDisabledDate); err != nil {
			return NewMutationError(FailureStorage, "failed to clear disabled flags", err)
		}
		if err := f.prefRepo.ClearDisabled(txCtx, target.ID); err != nil {
			return NewMutationError(FailureStorage, "failed to clear shared disabled flags", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.MutationResponse{
		Message: fmt.Sprintf("Account %s is no longer marked as disabled", displayName(target, temp)),
		Target:  displayName(target, temp),
	}, nil
}

// ToggleAdoption flips whether wikis founded by the account are adoptable.
// The flag defaults to set when the option row is absent.
func (f *AccountEditFlowImpl) ToggleAdoption(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *ClientMetadata) (*dto.ToggleAdoptionResponse, error) {
	target, temp, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	current := true
	option, err := f.optionRepo.Get(ctx, target.ID, models.OptionAllowAdoption)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to read adoption flag", err)
	}
	if option != nil {
		current = option.IsSet()
	}

	next := "0"
	if !current {
		next = "1"
	}
	if err := f.optionRepo.Set(ctx, target.ID, models.OptionAllowAdoption, next); err != nil {
		return nil, NewMutationError(FailureStorage, "failed to store adoption flag", err)
	}

	return &dto.ToggleAdoptionResponse{
		Message:       fmt.Sprintf("Adoption eligibility of %s has been toggled", displayName(target, temp)),
		Target:        displayName(target, temp),
		AllowAdoption: !current,
	}, nil
}

// CloseRequested reports whether the owner asked for closure themselves
func (f *AccountEditFlowImpl) CloseRequested(ctx context.Context, name string) (*dto.CloseRequestedResponse, error) {
	target, temp, err := f.resolveTarget(ctx, name)
	if err != nil {
		return nil, err
	}

	option, err := f.optionRepo.Get(ctx, target.ID, models.OptionRequestedClosure)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to read closure request flag", err)
	}

	return &dto.CloseRequestedResponse{
		Message:   "Closure request flag retrieved",
		Target:    displayName(target, temp),
		Requested: option.IsSet(),
	}, nil
}

// resolveTarget canonicalizes a raw name and loads the matching account along
// with its provisional registration, if one exists
func (f *AccountEditFlowImpl) resolveTarget(ctx context.Context, rawName string) (*models.Account, *models.TempAccount, error) {
	name := utils.NormalizeAccountName(rawName)
	if !utils.IsValidAccountName(name) {
		return nil, nil, NewMutationError(FailureValidation, "account name is invalid", ErrAccountNameInvalid)
	}

	account, err := f.accountRepo.ByName(ctx, name)
	if err != nil {
		return nil, nil, NewMutationError(FailureStorage, "failed to look up account", err)
	}

	if account != nil {
		temp, err := f.tempRepo.ByAccountID(ctx, account.ID)
		if err != nil {
			return nil, nil, NewMutationError(FailureStorage, "failed to look up provisional registration", err)
		}
		return account, temp, nil
	}

	// The name may belong to a registration that never confirmed its email
	temp, err := f.tempRepo.ByName(ctx, name)
	if err != nil {
		return nil, nil, NewMutationError(FailureStorage, "failed to look up provisional registration", err)
	}
	if temp.IsLive() {
		account, err = f.accountRepo.ByID(ctx, temp.AccountID)
		if err != nil {
			return nil, nil, NewMutationError(FailureStorage, "failed to look up account", err)
		}
		if account != nil {
			return account, temp, nil
		}
	}

	return nil, nil, NewMutationError(FailureValidation, fmt.Sprintf("no account named %q", name), ErrAccountNotFound)
}

// promoteProvisional turns a provisional registration into a full account
// using the supplied address. Runs inside the caller's transaction.
func (f *AccountEditFlowImpl) promoteProvisional(txCtx context.Context, account *models.Account, temp *models.TempAccount, newEmail string) error {
	account.Name = temp.Name
	account.Email = newEmail
	account.EmailConfirmedAt = utils.UTCNowPtr()
	if temp.PasswordHash != "" {
		account.PasswordHash = temp.PasswordHash
	}
	account.UpdatedAt = utils.UTCNow()

	if err := f.accountRepo.Update(txCtx, account); err != nil {
		return NewMutationError(FailureStorage, "failed to promote provisional registration", err)
	}
	if err := f.tempRepo.Delete(txCtx, temp.ID); err != nil {
		return NewMutationError(FailureStorage, "failed to remove provisional registration", err)
	}
	if err := f.optionRepo.Delete(txCtx, account.ID, models.OptionNewEmail); err != nil {
		return NewMutationError(FailureStorage, "failed to clear pending email", err)
	}
	return nil
}

// mergeProvisional folds a live provisional registration onto the permanent
// account without confirming an address. The account takes the provisional
// name and credential; the registration row is removed. Runs inside the
// caller's transaction.
func (f *AccountEditFlowImpl) mergeProvisional(txCtx context.Context, account *models.Account, temp *models.TempAccount) error {
	account.Name = temp.Name
	if temp.PasswordHash != "" {
		account.PasswordHash = temp.PasswordHash
	}
	account.UpdatedAt = utils.UTCNow()

	if err := f.accountRepo.Update(txCtx, account); err != nil {
		return NewMutationError(FailureStorage, "failed to merge provisional registration", err)
	}
	if err := f.tempRepo.Delete(txCtx, temp.ID); err != nil {
		return NewMutationError(FailureStorage, "failed to remove provisional registration", err)
	}
	return nil
}

// displayName prefers the provisional identity when one is pending
func displayName(account *models.Account, temp *models.TempAccount) string {
	if temp.IsLive() {
		return temp.Name
	}
	return account.Name
}

// recordMutation appends one editaccnt log entry. Callers treat a failure
// here as a failure of the whole operation.
func recordMutation(ctx context.Context, auditRepo repository.AuditLogRepository, action string, performerID uint, target *models.Account, reason string, metadata *ClientMetadata) error {
	entry := &models.AuditLog{
		CorrelationID: uuid.New(),
		Action:        action,
		PerformerID:   performerID,
		TargetID:      target.ID,
		TargetPage:    target.UserPage(),
		CreatedAt:     utils.UTCNow(),
	}

	if reason != "" {
		entry.Reason = utils.ToPtr(reason)
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			entry.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}

	return auditRepo.Save(ctx, entry)
}
