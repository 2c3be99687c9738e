package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/app/services"
	"github.com/wikiforge/account-console/config"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
	"github.com/wikiforge/account-console/utils"
	"gorm.io/gorm"
)

// CloseAccountFlow permanently deactivates accounts. The same flow serves the
// staff surface (explicit target name) and the self-service surface (the
// caller closes their own account by leaving the name blank).
type CloseAccountFlow interface {
	CloseAccount(ctx context.Context, performerID uint, req *dto.CloseAccountRequest, metadata *ClientMetadata) (*dto.MutationResponse, error)
}

type CloseAccountFlowImpl struct {
	accountRepo   repository.AccountRepository
	tempRepo      repository.TempAccountRepository
	optionRepo    repository.AccountOptionRepository
	prefRepo      repository.GlobalPreferenceRepository
	auditRepo     repository.AuditLogRepository
	sessionRepo   repository.AccountSessionRepository
	credentialSvc services.CredentialService
	tokenSvc      services.TokenService
	avatarSvc     services.AvatarService
	platform      *config.PlatformConfig
	db            *gorm.DB
}

// NewCloseAccountFlow creates a new close account flow instance
func NewCloseAccountFlow(
	accountRepo repository.AccountRepository,
	tempRepo repository.TempAccountRepository,
	optionRepo repository.AccountOptionRepository,
	prefRepo repository.GlobalPreferenceRepository,
	auditRepo repository.AuditLogRepository,
	sessionRepo repository.AccountSessionRepository,
	credentialSvc services.CredentialService,
	tokenSvc services.TokenService,
	avatarSvc services.AvatarService,
	platform *config.PlatformConfig,
	db *gorm.DB,
) CloseAccountFlow {
	return &CloseAccountFlowImpl{
		accountRepo:   accountRepo,
		tempRepo:      tempRepo,
		optionRepo:    optionRepo,
		prefRepo:      prefRepo,
		auditRepo:     auditRepo,
		sessionRepo:   sessionRepo,
		credentialSvc: credentialSvc,
		tokenSvc:      tokenSvc,
		avatarSvc:     avatarSvc,
		platform:      platform,
		db:            db,
	}
}

// CloseAccount scrambles the target's credentials, detaches its email, marks
// it disabled in both stores and expires every live session. Closing is
// idempotent from the caller's point of view.
func (f *CloseAccountFlowImpl) CloseAccount(ctx context.Context, performerID uint, req *dto.CloseAccountRequest, metadata *ClientMetadata) (*dto.MutationResponse, error) {
	target, temp, err := f.resolveTarget(ctx, performerID, req.Name)
	if err != nil {
		return nil, err
	}

	scrambled, err := f.credentialSvc.GenerateScrambledPassword()
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to generate replacement password", err)
	}
	scrambledHash, err := f.credentialSvc.HashPassword(scrambled)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to hash replacement password", err)
	}

	closedName := displayName(target, temp)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		target.RealName = f.platform.ClosedAccountFlag
		target.Email = ""
		target.EmailConfirmedAt = nil
		target.UpdatedAt = utils.UTCNow()
		if err := f.accountRepo.Update(txCtx, target); err != nil {
			return NewMutationError(FailureStorage, "failed to detach account identity", err)
		}

		affected, err := f.accountRepo.UpdatePasswordHash(txCtx, target.ID, scrambledHash)
		if err != nil {
			return NewMutationError(FailureStorage, "failed to scramble password", err)
		}
		if affected == 0 {
			return NewMutationError(FailureNotPersisted, "account row does not exist in storage", ErrAccountNotPersisted)
		}

		// A pending provisional registration dies with the account
		if temp.IsLive() {
			if err := f.tempRepo.Delete(txCtx, temp.ID); err != nil {
				return NewMutationError(FailureStorage, "failed to remove provisional registration", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Credentials must be verifiably gone before any disabled flag is set.
	// Flagging an account that still has a reachable email would strand it
	// half closed.
	reloaded, err := f.accountRepo.ByID(ctx, target.ID)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to reload account", err)
	}
	if reloaded == nil || reloaded.Email != "" {
		return nil, NewMutationError(FailureVerification, "account credentials were not detached", ErrCloseNotVerified)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.prefRepo.SetDisabled(txCtx, reloaded.ID, utils.UTCNow()); err != nil {
			return NewMutationError(FailureStorage, "failed to set shared disabled flags", err)
		}
		if err := f.optionRepo.Set(txCtx, reloaded.ID, models.OptionDisabled, "1"); err != nil {
			return NewMutationError(FailureStorage, "failed to set disabled flag", err)
		}
		if err := f.optionRepo.Set(txCtx, reloaded.ID, models.OptionDisabledDate, utils.UTCNowFormat(utils.DBTimestampLayout)); err != nil {
			return NewMutationError(FailureStorage, "failed to set disabled date", err)
		}

		// Rotating the seed invalidates refresh material issued before closure
		seed, err := f.credentialSvc.GenerateTokenSeed()
		if err != nil {
			return NewMutationError(FailureStorage, "failed to rotate token seed", err)
		}
		reloaded.TokenSeed = seed
		reloaded.UpdatedAt = utils.UTCNow()
		if err := f.accountRepo.Update(txCtx, reloaded); err != nil {
			return NewMutationError(FailureStorage, "failed to rotate token seed", err)
		}

		if err := f.sessionRepo.ExpireAllAccountSessions(txCtx, reloaded.ID); err != nil {
			return NewMutationError(FailureStorage, "failed to expire sessions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var warnings []string
	if err := f.tokenSvc.RevokeAccountTokens(ctx, reloaded.ID); err != nil {
		warnings = append(warnings, "issued tokens could not be revoked immediately")
	}
	if err := f.avatarSvc.RemoveAvatar(ctx, reloaded.ID); err != nil {
		warnings = append(warnings, "could not remove the account's profile image")
	}

	if err := recordMutation(ctx, f.auditRepo, models.AuditActionCloseAccount, performerID, reloaded, req.Reason, metadata); err != nil {
		return nil, NewMutationError(FailureStorage, "audit entry could not be recorded", err)
	}

	return &dto.MutationResponse{
		Message: fmt.Sprintf("Account %s has been closed", closedName),
		Target:  closedName,
		Warning: strings.Join(warnings, "; "),
	}, nil
}

// resolveTarget loads the account named in the request, or the performer's
// own account when the name is blank
func (f *CloseAccountFlowImpl) resolveTarget(ctx context.Context, performerID uint, rawName string) (*models.Account, *models.TempAccount, error) {
	if rawName == "" {
		account, err := f.accountRepo.ByID(ctx, performerID)
		if err != nil {
			return nil, nil, NewMutationError(FailureStorage, "failed to look up account", err)
		}
		if account == nil {
			return nil, nil, NewMutationError(FailureValidation, "performer account does not exist", ErrAccountNotFound)
		}
		temp, err := f.tempRepo.ByAccountID(ctx, account.ID)
		if err != nil {
			return nil, nil, NewMutationError(FailureStorage, "failed to look up provisional registration", err)
		}
		return account, temp, nil
	}

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
