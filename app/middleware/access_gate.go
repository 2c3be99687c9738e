// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/repository"
)

// AccessGate decides which mutation surface an authenticated caller may use.
// Staff use the full console; everyone else only gets self-service closure.
type AccessGate struct {
	optionRepo repository.AccountOptionRepository
}

// NewAccessGate creates a new access gate
func NewAccessGate(optionRepo repository.AccountOptionRepository) *AccessGate {
	return &AccessGate{
		optionRepo: optionRepo,
	}
}

// RequireStaff admits staff callers and sends everyone else to the
// self-service closure surface
func (g *AccessGate) RequireStaff() fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, ok := GetAccountIDFromContext(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authentication required",
				Error: dto.ErrorDetail{
					Code: "AUTHENTICATION_REQUIRED",
				},
			})
		}

		if !IsStaffFromContext(c) {
			return c.Redirect().Status(fiber.StatusSeeOther).To("/api/v1/close-account")
		}

		return c.Next()
	}
}

// RequireSelf admits non-staff callers to the self-service surface. Staff
// belong on the console where their actions are gated and logged.
func (g *AccessGate) RequireSelf() fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, ok := GetAccountIDFromContext(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authentication required",
				Error: dto.ErrorDetail{
					Code: "AUTHENTICATION_REQUIRED",
				},
			})
		}

		if IsStaffFromContext(c) {
			return c.Redirect().Status(fiber.StatusSeeOther).To("/api/v1/staff/accounts/close")
		}

		return c.Next()
	}
}

// RefuseBlocked rejects callers whose own account carries the disabled flag
func (g *AccessGate) RefuseBlocked() fiber.Handler {
	return func(c fiber.Ctx) error {
		accountID, ok := GetAccountIDFromContext(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authentication required",
				Error: dto.ErrorDetail{
					Code: "AUTHENTICATION_REQUIRED",
				},
			})
		}

		option, err := g.optionRepo.Get(c.Context(), accountID, models.OptionDisabled)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to check account status",
				Error: dto.ErrorDetail{
					Code: "ACCOUNT_STATUS_CHECK_FAILED",
				},
			})
		}
		if option.IsSet() {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Account is disabled",
				Error: dto.ErrorDetail{
					Code: "ACCOUNT_DISABLED",
				},
			})
		}

		return c.Next()
	}
}
