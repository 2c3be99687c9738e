package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikiforge/account-console/app/services"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
)

// seededAccountRepo serves one in-memory account row
type seededAccountRepo struct {
	repository.AccountRepository
	account *models.Account
}

func (r *seededAccountRepo) ByID(ctx context.Context, id uint) (*models.Account, error) {
	if r.account != nil && r.account.ID == id {
		return r.account, nil
	}
	return nil, nil
}

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()
	svc, err := services.NewTokenService(
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
	return svc
}

func newProtectedApp(m *AuthMiddleware) *fiber.App {
	app := fiber.New()
	app.Get("/protected", m.Authenticate(), func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuthenticate(t *testing.T) {
	tokenSvc := newTestTokenService(t)
	account := &models.Account{ID: 5, Name: "Some Name", TokenSeed: "seed-a"}
	m := NewAuthMiddleware(tokenSvc, &seededAccountRepo{account: account})
	app := newProtectedApp(m)

	t.Run("MatchingSeedPasses", func(t *testing.T) {
		token, _, err := tokenSvc.GenerateTokens(5, false, "seed-a")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("RotatedSeedIsRevoked", func(t *testing.T) {
		token, _, err := tokenSvc.GenerateTokens(5, false, "seed-a")
		require.NoError(t, err)

		// Closure rotates the seed on the account row
		account.TokenSeed = "seed-b"
		defer func() { account.TokenSeed = "seed-a" }()

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "TOKEN_REVOKED")
	})

	t.Run("UnknownAccountIsRevoked", func(t *testing.T) {
		token, _, err := tokenSvc.GenerateTokens(99, false, "seed-a")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("MissingHeaderRejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
