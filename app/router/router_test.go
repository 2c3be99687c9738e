package router

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikiforge/account-console/app/middleware"
	"github.com/wikiforge/account-console/app/services"
	"github.com/wikiforge/account-console/config"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
)

// stubAccountRepo serves one in-memory account row
type stubAccountRepo struct {
	repository.AccountRepository
	account *models.Account
}

func (r *stubAccountRepo) ByID(ctx context.Context, id uint) (*models.Account, error) {
	if r.account != nil && r.account.ID == id {
		return r.account, nil
	}
	return nil, nil
}

// stubOptionRepo serves option rows for one account
type stubOptionRepo struct {
	repository.AccountOptionRepository
	options map[string]string
}

func (r *stubOptionRepo) Get(ctx context.Context, accountID uint, name string) (*models.AccountOption, error) {
	value, ok := r.options[name]
	if !ok {
		return nil, nil
	}
	return &models.AccountOption{AccountID: accountID, Name: name, Value: value}, nil
}

// recordingCloseHandler notes whether a request got past the gate
type recordingCloseHandler struct {
	reached bool
}

func (h *recordingCloseHandler) CloseAccount(c fiber.Ctx) error {
	h.reached = true
	return c.SendStatus(fiber.StatusOK)
}

func (h *recordingCloseHandler) CloseOwnAccount(c fiber.Ctx) error {
	h.reached = true
	return c.SendStatus(fiber.StatusOK)
}

type stubEditHandler struct{}

func (stubEditHandler) GetAccount(c fiber.Ctx) error       { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) SetEmail(c fiber.Ctx) error         { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) SetPassword(c fiber.Ctx) error      { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) SetRealName(c fiber.Ctx) error      { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) ClearUnsubscribe(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) ClearDisable(c fiber.Ctx) error     { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) ToggleAdoption(c fiber.Ctx) error   { return c.SendStatus(fiber.StatusOK) }
func (stubEditHandler) CloseRequested(c fiber.Ctx) error   { return c.SendStatus(fiber.StatusOK) }

type stubAuditHandler struct{}

func (stubAuditHandler) ListAudit(c fiber.Ctx) error   { return c.SendStatus(fiber.StatusOK) }
func (stubAuditHandler) ExportAudit(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

func testRouterConfig() *config.ProductionConfig {
	return &config.ProductionConfig{
		Server: config.ServerConfig{
			BodyLimit:    4 * 1024 * 1024,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Security: config.SecurityConfig{
			AllowedOrigins:  []string{"http://localhost:3000"},
			AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:  []string{"Content-Type", "Authorization"},
			CORSMaxAge:      86400,
			GlobalRateLimit: 100,
			StaffRateLimit:  100,
			RateLimitWindow: time.Minute,
		},
	}
}

func newRouterUnderTest(t *testing.T, accountRepo repository.AccountRepository, optionRepo repository.AccountOptionRepository) (*fiber.App, *recordingCloseHandler) {
	t.Helper()

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
	require.NoError(t, err)

	closeHandler := &recordingCloseHandler{}
	r := NewFiberRouter(
		testRouterConfig(),
		stubEditHandler{},
		closeHandler,
		stubAuditHandler{},
		middleware.NewAuthMiddleware(tokenSvc, accountRepo),
		middleware.NewAccessGate(optionRepo),
	)
	r.SetupRoutes()

	return r.GetApp(), closeHandler
}

func bearerFor(t *testing.T, accountID uint, staff bool, seed string) string {
	t.Helper()
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
	require.NoError(t, err)

	token, _, err := tokenSvc.GenerateTokens(accountID, staff, seed)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSelfCloseRefusesBlockedCaller(t *testing.T) {
	account := &models.Account{ID: 5, Name: "Some Name", TokenSeed: "seed-a"}
	accountRepo := &stubAccountRepo{account: account}
	optionRepo := &stubOptionRepo{options: map[string]string{models.OptionDisabled: "1"}}
	app, closeHandler := newRouterUnderTest(t, accountRepo, optionRepo)

	req := httptest.NewRequest("POST", "/api/v1/close-account", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, 5, false, "seed-a"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.False(t, closeHandler.reached)
}

func TestSelfCloseAdmitsCleanCaller(t *testing.T) {
	account := &models.Account{ID: 5, Name: "Some Name", TokenSeed: "seed-a"}
	accountRepo := &stubAccountRepo{account: account}
	optionRepo := &stubOptionRepo{options: map[string]string{}}
	app, closeHandler := newRouterUnderTest(t, accountRepo, optionRepo)

	req := httptest.NewRequest("POST", "/api/v1/close-account", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, 5, false, "seed-a"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, closeHandler.reached)
}

func TestSelfCloseRedirectsStaff(t *testing.T) {
	account := &models.Account{ID: 5, Name: "Some Name", TokenSeed: "seed-a"}
	accountRepo := &stubAccountRepo{account: account}
	optionRepo := &stubOptionRepo{options: map[string]string{}}
	app, closeHandler := newRouterUnderTest(t, accountRepo, optionRepo)

	req := httptest.NewRequest("POST", "/api/v1/close-account", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, 5, true, "seed-a"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.False(t, closeHandler.reached)
}

func TestStaffSurfaceRefusesBlockedStaff(t *testing.T) {
	account := &models.Account{ID: 5, Name: "Some Name", TokenSeed: "seed-a"}
	accountRepo := &stubAccountRepo{account: account}
	optionRepo := &stubOptionRepo{options: map[string]string{models.OptionDisabled: "1"}}
	app, _ := newRouterUnderTest(t, accountRepo, optionRepo)

	req := httptest.NewRequest("GET", "/api/v1/staff/accounts/Some%20Name", nil)
	req.Header.Set("Authorization", bearerFor(t, 5, true, "seed-a"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
