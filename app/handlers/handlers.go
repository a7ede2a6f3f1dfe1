// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/middleware"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const defaultRequestTimeout = 30 * time.Second

// NewValidator returns a validator with the custom tags used by request DTOs
func NewValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return utils.IsValidPhone(fl.Field().String())
	})

	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		var hasUpper, hasNumber bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasNumber = true
			}
		}
		return hasUpper && hasNumber
	})

	return v
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "eqfield":
		return err.Field() + " must match " + err.Param()
	case "phone":
		return err.Field() + " must be a phone number with 10 to 15 digits"
	case "password_strength":
		return "Password must contain at least 1 uppercase letter and 1 number"
	case "datetime":
		return err.Field() + " must match the format " + err.Param()
	case "uuid":
		return err.Field() + " must be a valid UUID"
	case "latitude", "longitude":
		return err.Field() + " must be a valid " + err.Tag()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// baseHandler carries what every handler needs: validation, response shaping and request context
type baseHandler struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newBaseHandler(v *validator.Validate, logger *slog.Logger) baseHandler {
	if v == nil {
		v = NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return baseHandler{validator: v, logger: logger}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// bindJSON decodes and validates a JSON body. It writes the 400 response itself and reports false on failure.
func (h *baseHandler) bindJSON(c fiber.Ctx, req any) (bool, error) {
	if err := c.Bind().JSON(req); err != nil {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	return h.validate(c, req)
}

func (h *baseHandler) validate(c fiber.Ctx, req any) (bool, error) {
	if err := h.validator.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		validationErrors := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			validationErrors = append(validationErrors, getValidationErrorMessage(fe))
		}
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	return true, nil
}

// accountID returns the authenticated account or writes a 401
func (h *baseHandler) accountID(c fiber.Ctx) (uint, bool, error) {
	id, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return 0, false, h.ErrorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}
	return id, true, nil
}

func (h *baseHandler) metadata(c fiber.Ctx) *businessflow.ClientMetadata {
	md := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	md.SetRequestID(requestID(c))
	return md
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, defaultRequestTimeout)
}

func (h *baseHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, businessflow.EndpointKey, endpoint)
	return ctx, cancel
}

// queryPage reads page and page_size with the given defaults
func queryPage(c fiber.Ctx, defaultSize uint) (uint, uint) {
	page, pageSize := uint(1), defaultSize
	if v := c.Query("page"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			page = uint(n)
		} else {
			page = 0
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			pageSize = uint(n)
		} else {
			pageSize = 0
		}
	}
	return page, pageSize
}

func requestID(c fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}

// queryString returns a trimmed query parameter or nil when absent
func queryString(c fiber.Ctx, key string) *string {
	return utils.TrimmedPtr(utils.ToPtr(c.Query(key)))
}
