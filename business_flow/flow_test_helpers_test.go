package businessflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wikiforge/account-console/app/services"
	businessflow "github.com/wikiforge/account-console/business_flow"
	"github.com/wikiforge/account-console/config"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
	testingutil "github.com/wikiforge/account-console/testing"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// flowEnv wires real repositories over a throwaway postgres database
type flowEnv struct {
	db       *gorm.DB
	fixtures *testingutil.TestFixtures

	accountRepo repository.AccountRepository
	tempRepo    repository.TempAccountRepository
	optionRepo  repository.AccountOptionRepository
	prefRepo    repository.GlobalPreferenceRepository
	auditRepo   repository.AuditLogRepository
	sessionRepo repository.AccountSessionRepository

	credentialSvc services.CredentialService
	tokenSvc      services.TokenService
	platform      config.PlatformConfig
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = testDB.TeardownTestDB()
	})

	tokenSvc, err := services.NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-for-jwt-signing-32-chars",
		nil,
	)
	if err != nil {
		t.Fatalf("failed to build token service: %v", err)
	}

	return &flowEnv{
		db:            testDB.DB,
		fixtures:      testingutil.NewTestFixtures(testDB),
		accountRepo:   repository.NewAccountRepository(testDB.DB),
		tempRepo:      repository.NewTempAccountRepository(testDB.DB),
		optionRepo:    repository.NewAccountOptionRepository(testDB.DB),
		prefRepo:      repository.NewGlobalPreferenceRepository(testDB.DB),
		auditRepo:     repository.NewAuditLogRepository(testDB.DB),
		sessionRepo:   repository.NewAccountSessionRepository(testDB.DB),
		credentialSvc: services.NewCredentialService(bcrypt.MinCost),
		tokenSvc:      tokenSvc,
		platform:      config.PlatformConfig{ClosedAccountFlag: "Account Disabled"},
	}
}

func (e *flowEnv) editFlow() businessflow.AccountEditFlow {
	return businessflow.NewAccountEditFlow(
		e.accountRepo,
		e.tempRepo,
		e.optionRepo,
		e.prefRepo,
		e.auditRepo,
		e.credentialSvc,
		e.db,
	)
}

func (e *flowEnv) closeFlow() businessflow.CloseAccountFlow {
	return businessflow.NewCloseAccountFlow(
		e.accountRepo,
		e.tempRepo,
		e.optionRepo,
		e.prefRepo,
		e.auditRepo,
		e.sessionRepo,
		e.credentialSvc,
		e.tokenSvc,
		services.NewAvatarService(nil),
		&e.platform,
		e.db,
	)
}

func (e *flowEnv) auditEntries(t *testing.T, targetID uint) []*models.AuditLog {
	t.Helper()
	entries, err := e.auditRepo.ListByTarget(context.Background(), targetID, 100, 0)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	return entries
}

func testMetadata() *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
	metadata.SetRequestID("req-test-1")
	return metadata
}

// failingAuditRepo refuses every insert while delegating reads
type failingAuditRepo struct {
	repository.AuditLogRepository
}

func (r *failingAuditRepo) Save(ctx context.Context, entity *models.AuditLog) error {
	return errors.New("audit store unavailable")
}

// stubbornAccountRepo swallows Update calls so read-back verification sees
// the old row
type stubbornAccountRepo struct {
	repository.AccountRepository
}

func (r *stubbornAccountRepo) Update(ctx context.Context, entity *models.Account) error {
	return nil
}

// failingTokenService refuses revocation while delegating everything else
type failingTokenService struct {
	services.TokenService
}

func (s *failingTokenService) RevokeAccountTokens(ctx context.Context, accountID uint) error {
	return errors.New("revocation list unreachable")
}

// failingAvatarService refuses every removal
type failingAvatarService struct{}

func (s *failingAvatarService) RemoveAvatar(ctx context.Context, accountID uint) error {
	return errors.New("avatar store unavailable")
}
