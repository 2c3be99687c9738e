// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/app/services"
	"github.com/wikiforge/account-console/repository"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
	accountRepo  repository.AccountRepository
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService, accountRepo repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		accountRepo:  accountRepo,
	}
}

// Authenticate is the middleware function that validates JWT tokens
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Get the Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authorization header is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_AUTHORIZATION_HEADER",
				},
			})
		}

		// Check if the header starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid authorization header format. Expected 'Bearer <token>'",
				Error: dto.ErrorDetail{
					Code: "INVALID_AUTHORIZATION_FORMAT",
				},
			})
		}

		// Extract the token (remove "Bearer " prefix)
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Access token is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_ACCESS_TOKEN",
				},
			})
		}

		// Validate the token (this already checks for revocation)
		claims, err := m.tokenService.ValidateToken(c.Context(), token)
		if err != nil {
			var errorCode string
			var message string

			// Determine the specific error type
			if errors.Is(err, services.ErrTokenExpired) {
				errorCode = "TOKEN_EXPIRED"
				message = "Access token has expired"
			} else if errors.Is(err, services.ErrTokenInvalid) {
				errorCode = "TOKEN_INVALID"
				message = "Invalid access token"
			} else if errors.Is(err, services.ErrTokenRevoked) {
				errorCode = "TOKEN_REVOKED"
				message = "Access token has been revoked"
			} else {
				errorCode = "TOKEN_VALIDATION_FAILED"
				message = "Token validation failed"
			}

			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: message,
				Error: dto.ErrorDetail{
					Code: errorCode,
				},
			})
		}

		// The token must carry the account's current seed. Closure rotates
		// the seed, retiring every previously issued token even when the
		// revocation list is unreachable.
		account, err := m.accountRepo.ByID(c.Context(), claims.AccountID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to verify account status",
				Error: dto.ErrorDetail{
					Code: "ACCOUNT_LOOKUP_FAILED",
				},
			})
		}
		if account == nil || account.TokenSeed != claims.Seed {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Access token has been revoked",
				Error: dto.ErrorDetail{
					Code: "TOKEN_REVOKED",
				},
			})
		}

		// Store account information in context for downstream handlers
		c.Locals("account_id", claims.AccountID)
		c.Locals("is_staff", claims.Staff)
		c.Locals("token_id", claims.TokenID)
		c.Locals("token_claims", claims)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		// Continue to the next handler
		return c.Next()
	}
}

// GetAccountIDFromContext extracts the account ID from the request context
func GetAccountIDFromContext(c fiber.Ctx) (uint, bool) {
	accountID, ok := c.Locals("account_id").(uint)
	return accountID, ok
}

// IsStaffFromContext reports whether the authenticated caller is staff
func IsStaffFromContext(c fiber.Ctx) bool {
	staff, ok := c.Locals("is_staff").(bool)
	return ok && staff
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals("token_claims").(*services.TokenClaims)
	return claims, ok
}
