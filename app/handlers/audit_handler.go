// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/wikiforge/account-console/app/dto"
	businessflow "github.com/wikiforge/account-console/business_flow"
)

// AuditHandlerInterface defines the contract for audit log handlers
type AuditHandlerInterface interface {
	ListAudit(c fiber.Ctx) error
	ExportAudit(c fiber.Ctx) error
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	auditFlow businessflow.AuditReviewFlow
	validator *validator.Validate
}

func (h *AuditHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuditHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditFlow businessflow.AuditReviewFlow) *AuditHandler {
	return &AuditHandler{
		auditFlow: auditFlow,
		validator: validator.New(),
	}
}

// ListAudit returns one page of an account's editaccnt entries
func (h *AuditHandler) ListAudit(c fiber.Ctx) error {
	req := dto.ListAuditRequest{
		Name: c.Query("name"),
	}
	if page := c.Query("page"); page != "" {
		v, err := strconv.Atoi(page)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "page must be a number", "VALIDATION_ERROR", nil)
		}
		req.Page = v
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		v, err := strconv.Atoi(pageSize)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "page_size must be a number", "VALIDATION_ERROR", nil)
		}
		req.PageSize = v
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.auditFlow.ListByTarget(h.createRequestContext(c, "/api/v1/staff/audit"), &req)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsAccountNameInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is invalid", "ACCOUNT_NAME_INVALID", nil)
		}

		log.Println("Audit listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Audit listing failed", "AUDIT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ExportAudit downloads an account's full editaccnt log as a workbook
func (h *AuditHandler) ExportAudit(c fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is required", "VALIDATION_ERROR", nil)
	}

	filename, payload, err := h.auditFlow.ExportByTarget(h.createRequestContext(c, "/api/v1/staff/audit/export"), name)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsAccountNameInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Account name is invalid", "ACCOUNT_NAME_INVALID", nil)
		}

		log.Println("Audit export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Audit export failed", "AUDIT_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	return c.Send(payload)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AuditHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
