package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
	"github.com/wikiforge/account-console/utils"
	"github.com/xuri/excelize/v2"
)

const (
	defaultAuditPageSize = 25
	maxAuditExportRows   = 10000
)

// AuditReviewFlow pages through and exports the editaccnt log
type AuditReviewFlow interface {
	ListByTarget(ctx context.Context, req *dto.ListAuditRequest) (*dto.AuditListResponse, error)
	ExportByTarget(ctx context.Context, name string) (string, []byte, error)
}

type AuditReviewFlowImpl struct {
	accountRepo repository.AccountRepository
	tempRepo    repository.TempAccountRepository
	auditRepo   repository.AuditLogRepository
}

// NewAuditReviewFlow creates a new audit review flow instance
func NewAuditReviewFlow(
	accountRepo repository.AccountRepository,
	tempRepo repository.TempAccountRepository,
	auditRepo repository.AuditLogRepository,
) AuditReviewFlow {
	return &AuditReviewFlowImpl{
		accountRepo: accountRepo,
		tempRepo:    tempRepo,
		auditRepo:   auditRepo,
	}
}

// ListByTarget returns one page of the target's editaccnt entries, newest
// first
func (f *AuditReviewFlowImpl) ListByTarget(ctx context.Context, req *dto.ListAuditRequest) (*dto.AuditListResponse, error) {
	target, err := f.resolveTarget(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultAuditPageSize
	}

	entries, err := f.auditRepo.ListByTarget(ctx, target.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to load audit entries", err)
	}

	total, err := f.auditRepo.Count(ctx, models.AuditLogFilter{TargetID: utils.ToPtr(target.ID)})
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to count audit entries", err)
	}

	out := make([]dto.AuditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ToAuditEntryDTO(entry))
	}

	return &dto.AuditListResponse{
		Message: fmt.Sprintf("Audit log of %s retrieved", target.Name),
		Entries: out,
		Total:   total,
		Page:    page,
	}, nil
}

// ExportByTarget renders the target's full editaccnt log as a workbook
func (f *AuditReviewFlowImpl) ExportByTarget(ctx context.Context, name string) (string, []byte, error) {
	target, err := f.resolveTarget(ctx, name)
	if err != nil {
		return "", nil, err
	}

	entries, err := f.auditRepo.ListByTarget(ctx, target.ID, maxAuditExportRows, 0)
	if err != nil {
		return "", nil, NewMutationError(FailureStorage, "failed to load audit entries", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	xl.SetSheetName(sheet, "editaccnt")
	sheet = "editaccnt"

	header := []string{"id", "action", "performer", "target", "target_page", "reason", "ip", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, entry := range entries {
		performer := ""
		if entry.Performer != nil {
			performer = entry.Performer.Name
		}
		targetName := target.Name
		if entry.Target != nil {
			targetName = entry.Target.Name
		}
		reason := ""
		if entry.Reason != nil {
			reason = *entry.Reason
		}
		ip := ""
		if entry.IPAddress != nil {
			ip = *entry.IPAddress
		}
		record := []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			entry.Action,
			performer,
			targetName,
			entry.TargetPage,
			reason,
			ip,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewMutationError(FailureStorage, "failed to write workbook", err)
	}

	filename := fmt.Sprintf("editaccnt_%d.xlsx", target.ID)
	return filename, buf.Bytes(), nil
}

func (f *AuditReviewFlowImpl) resolveTarget(ctx context.Context, rawName string) (*models.Account, error) {
	name := utils.NormalizeAccountName(rawName)
	if !utils.IsValidAccountName(name) {
		return nil, NewMutationError(FailureValidation, "account name is invalid", ErrAccountNameInvalid)
	}

	account, err := f.accountRepo.ByName(ctx, name)
	if err != nil {
		return nil, NewMutationError(FailureStorage, "failed to look up account", err)
	}
	if account == nil {
		temp, err := f.tempRepo.ByName(ctx, name)
		if err != nil {
			return nil, NewMutationError(FailureStorage, "failed to look up provisional registration", err)
		}
		if temp.IsLive() {
			account, err = f.accountRepo.ByID(ctx, temp.AccountID)
			if err != nil {
				return nil, NewMutationError(FailureStorage, "failed to look up account", err)
			}
		}
	}
	if account == nil {
		return nil, NewMutationError(FailureValidation, fmt.Sprintf("no account named %q", name), ErrAccountNotFound)
	}
	return account, nil
}
