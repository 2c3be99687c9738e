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

// AccountEditHandlerInterface defines the contract for staff account mutation handlers
type AccountEditHandlerInterface interface {
	GetAccount(c fiber.Ctx) error
	SetEmail(c fiber.Ctx) error
	SetPassword(c fiber.Ctx) error
	SetRealName(c fiber.Ctx) error
	ClearUnsubscribe(c fiber.Ctx) error
	ClearDisable(c fiber.Ctx) error
	ToggleAdoption(c fiber.Ctx) error
	CloseRequested(c fiber.Ctx) error
}

// AccountEditHandler handles staff account mutation HTTP requests
type AccountEditHandler struct {
	editFlow  businessflow.AccountEditFlow
	validator *validator.Validate
}

func (h *AccountEditHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AccountEditHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAccountEditHandler creates a new account edit handler
func NewAccountEditHandler(editFlow businessflow.AccountEditFlow) *AccountEditHandler {
	handler := &AccountEditHandler{
		editFlow:  editFlow,
		validator: validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// GetAccount returns the staff view of one account
func (h *AccountEditHandler) GetAccount(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is required", "VALIDATION_ERROR", nil)
	}

	result, err := h.editFlow.GetAccount(h.createRequestContext(c, "/api/v1/staff/accounts/:name"), name)
	if err != nil {
		return h.mutationErrorResponse(c, err, "Account lookup failed", "ACCOUNT_LOOKUP_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result.Account)
}

// SetEmail changes or clears the target account's email address
func (h *AccountEditHandler) SetEmail(c fiber.Ctx) error {
	var req dto.SetEmailRequest
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

	performerID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account not authenticated", "UNAUTHORIZED", nil)
	}

	metadata := h.clientMetadata(c)
	result, err := h.editFlow.SetEmail(h.createRequestContext(c, "/api/v1/staff/accounts/email"), performerID, &req, metadata)
	if err != nil {
		return h.mutationErrorResponse(c, err, "Email change failed", "EMAIL_CHANGE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// SetPassword sets a new password on the target account
func (h *AccountEditHandler) SetPassword(c fiber.Ctx) error {
	var req dto.SetPasswordRequest
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

	performerID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account not authenticated", "UNAUTHORIZED", nil)
	}

	metadata := h.clientMetadata(c)
	result, err := h.editFlow.SetPassword(h.createRequestContext(c, "/api/v1/staff/accounts/password"), performerID, &req, metadata)
	if err != nil {
		return h.mutationErrorResponse(c, err, "Password change failed", "PASSWORD_CHANGE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// SetRealName changes or clears the target account's real name
func (h *AccountEditHandler) SetRealName(c fiber.Ctx) error {
	var req dto.SetRealNameRequest
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

	performerID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account not authenticated", "UNAUTHORIZED", nil)
	}

	metadata := h.clientMetadata(c)
	result, err := h.editFlow.SetRealName(h.createRequestContext(c, "/api/v1/staff/accounts/realname"), performerID, &req, metadata)
	if err != nil {
		return h.mutationErrorResponse(c, err, "Real name change failed", "REALNAME_CHANGE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ClearUnsubscribe removes the target account's mail opt-out flag
func (h *AccountEditHandler) ClearUnsubscribe(c fiber.Ctx) error {
	return h.flagEndpoint(c, "/api/v1/staff/accounts/clear-unsubscribe", "Unsubscribe clear failed", "UNSUBSCRIBE_CLEAR_FAILED", h.editFlow.ClearUnsubscribe)
}

// ClearDisable removes the target account's disabled markers
func (h *AccountEditHandler) ClearDisable(c fiber.Ctx) error {
	return h.flagEndpoint(c, "/api/v1/staff/accounts/clear-disable", "Disable clear failed", "DISABLE_CLEAR_FAILED", h.editFlow.ClearDisable)
}

// ToggleAdoption flips whether wikis founded by the target are adoptable
func (h *AccountEditHandler) ToggleAdoption(c fiber.Ctx) error {
	var req dto.AccountFlagRequest
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

	performerID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account not authenticated", "UNAUTHORIZED", nil)
	}

	metadata := h.clientMetadata(c)
	result, err := h.editFlow.ToggleAdoption(h.createRequestContext(c, "/api/v1/staff/accounts/toggle-adoption"), performerID, &req, metadata)
	if err != nil {
		return h.mutationErrorResponse(c, err, "Adoption toggle failed", "ADOPTION_TOGGLE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CloseRequested reports whether the account owner asked for closure themselves
func (h *AccountEditHandler) CloseRequested(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is required", "VALIDATION_ERROR", nil)
	}

	result, err := h.editFlow.CloseRequested(h.createRequestContext(c, "/api/v1/staff/accounts/:name/close-requested"), name)
	if err != nil {
		return h.mutationErrorResponse(c, err, "Closure request lookup failed", "CLOSE_REQUESTED_LOOKUP_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// flagEndpoint handles the flag mutations that share one request and response shape
func (h *AccountEditHandler) flagEndpoint(
	c fiber.Ctx,
	endpoint string,
	failureMessage string,
	failureCode string,
	op func(ctx context.Context, performerID uint, req *dto.AccountFlagRequest, metadata *businessflow.ClientMetadata) (*dto.MutationResponse, error),
) error {
	var req dto.AccountFlagRequest
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

	performerID, ok := c.Locals("account_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account not authenticated", "UNAUTHORIZED", nil)
	}

	metadata := h.clientMetadata(c)
	result, err := op(h.createRequestContext(c, endpoint), performerID, &req, metadata)
	if err != nil {
		return h.mutationErrorResponse(c, err, failureMessage, failureCode)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// mutationErrorResponse maps flow errors to HTTP statuses
func (h *AccountEditHandler) mutationErrorResponse(c fiber.Ctx, err error, failureMessage, failureCode string) error {
	if businessflow.IsAccountNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
	}
	if businessflow.IsAccountNameInvalid(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is invalid", "ACCOUNT_NAME_INVALID", nil)
	}
	if businessflow.IsEmailInvalid(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Email address is malformed", "EMAIL_INVALID", nil)
	}
	if businessflow.IsEmailRequiredForProvisional(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "A provisional registration requires a new email address", "EMAIL_REQUIRED", nil)
	}
	if businessflow.IsNotPersistedFailure(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Account row no longer exists", "ACCOUNT_NOT_PERSISTED", nil)
	}
	if businessflow.IsValidationFailure(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, failureMessage, failureCode, nil)
	}
	if businessflow.IsVerificationFailure(err) {
		log.Println("Mutation verification failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Change could not be verified", "CHANGE_NOT_VERIFIED", nil)
	}

	log.Println(failureMessage, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, failureMessage, failureCode, nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AccountEditHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *AccountEditHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))
	return metadata
}

// Custom validation setup
func (h *AccountEditHandler) setupCustomValidations() {
	// Register custom validation for password strength
	h.validator.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()

		hasUpper := false
		hasNumber := false

		for _, char := range value {
			if char >= 'A' && char <= 'Z' {
				hasUpper = true
			}
			if char >= '0' && char <= '9' {
				hasNumber = true
			}
		}

		return hasUpper && hasNumber
	})
}
