// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/wikiforge/account-console/app/dto"
	businessflow "github.com/wikiforge/account-console/business_flow"
)

// CloseAccountHandlerInterface defines the contract for account closure handlers
type CloseAccountHandlerInterface interface {
	CloseAccount(c fiber.Ctx) error
	CloseOwnAccount(c fiber.Ctx) error
}

// CloseAccountHandler handles account closure HTTP requests
type CloseAccountHandler struct {
	closeFlow businessflow.CloseAccountFlow
	validator *validator.Validate
}

func (h *CloseAccountHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CloseAccountHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewCloseAccountHandler creates a new close account handler
func NewCloseAccountHandler(closeFlow businessflow.CloseAccountFlow) *CloseAccountHandler {
	return &CloseAccountHandler{
		closeFlow: closeFlow,
		validator: validator.New(),
	}
}

// CloseAccount closes the named account on behalf of staff
func (h *CloseAccountHandler) CloseAccount(c fiber.Ctx) error {
	var req dto.CloseAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// The staff surface always names its target
	if req.Name == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is required", "VALIDATION_ERROR", nil)
	}

	return h.close(c, "/api/v1/staff/accounts/close", &req)
}

// CloseOwnAccount closes the caller's own account
func (h *CloseAccountHandler) CloseOwnAccount(c fiber.Ctx) error {
	var req dto.CloseAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// The caller may only close themselves here
	req.Name = ""

	return h.close(c, "/api/v1/close-account", &req)
}

func (h *CloseAccountHandler) close(c fiber.Ctx, endpoint string, req *dto.CloseAccountRequest) error {
	performerID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account not authenticated", "UNAUTHORIZED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.closeFlow.CloseAccount(h.createRequestContext(c, endpoint), performerID, req, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsAccountNameInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is invalid", "ACCOUNT_NAME_INVALID", nil)
		}
		if businessflow.IsNotPersistedFailure(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account row no longer exists", "ACCOUNT_NOT_PERSISTED", nil)
		}
		if businessflow.IsVerificationFailure(err) {
			log.Println("Account closure verification failed", err)
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Closure could not be verified", "CLOSE_NOT_VERIFIED", nil)
		}

		log.Println("Account closure failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account closure failed", "CLOSE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout.
// Closure does several round trips to storage, so it gets a longer deadline.
func (h *CloseAccountHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 60*time.Second)
}
