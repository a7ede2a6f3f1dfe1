package handlers

import (
	"log/slog"
	"strconv"

	"github.com/amirphl/partyline/app/dto"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type RecipientHandlerInterface interface {
	ListRecipients(c fiber.Ctx) error
	CreateRecipient(c fiber.Ctx) error
	UpdateRecipient(c fiber.Ctx) error
	DeleteRecipient(c fiber.Ctx) error
}

// RecipientHandler exposes the guest list
type RecipientHandler struct {
	baseHandler
	flow businessflow.RecipientFlow
}

func NewRecipientHandler(flow businessflow.RecipientFlow, v *validator.Validate, logger *slog.Logger) *RecipientHandler {
	return &RecipientHandler{baseHandler: newBaseHandler(v, logger), flow: flow}
}

func (h *RecipientHandler) recipientError(c fiber.Ctx, err error, fallbackMsg, fallbackCode string) error {
	switch {
	case businessflow.IsRecipientNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Recipient not found", "RECIPIENT_NOT_FOUND", nil)
	case businessflow.IsRecipientAccessDenied(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Recipient belongs to another account", "RECIPIENT_ACCESS_DENIED", nil)
	case businessflow.IsRecipientPhoneExists(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "A recipient with this phone already exists", "RECIPIENT_PHONE_EXISTS", nil)
	case businessflow.IsInvalidPhone(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
	case businessflow.IsFirstNameRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "First name is required", "FIRST_NAME_REQUIRED", nil)
	case businessflow.IsInvalidPage(err), businessflow.IsInvalidPageSize(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "INVALID_PAGINATION", err.Error())
	}
	h.logger.Error(fallbackMsg, "error", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMsg, fallbackCode, nil)
}

func (h *RecipientHandler) recipientIDParam(c fiber.Ctx) (uint, bool, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid recipient id", "INVALID_RECIPIENT_ID", nil)
	}
	return uint(id), true, nil
}

// ListRecipients lists the caller's guests
// @Summary List recipients
// @Tags Recipients
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive match on first, last or full name"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListRecipientsResponse} "Recipients retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/recipients [get]
func (h *RecipientHandler) ListRecipients(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}

	page, pageSize := queryPage(c, 20)
	req := dto.ListRecipientsRequest{Search: c.Query("search"), Page: page, PageSize: pageSize}

	ctx, cancel := h.createRequestContext(c, "/api/v1/recipients")
	defer cancel()

	res, err := h.flow.ListRecipients(ctx, accountID, &req)
	if err != nil {
		return h.recipientError(c, err, "Failed to list recipients", "LIST_RECIPIENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Recipients retrieved successfully", res)
}

// CreateRecipient adds a guest
// @Summary Create recipient
// @Tags Recipients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRecipientRequest true "Recipient"
// @Success 201 {object} dto.APIResponse{data=dto.RecipientDTO} "Recipient created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Phone already on the guest list"
// @Router /api/v1/recipients [post]
func (h *RecipientHandler) CreateRecipient(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	var req dto.CreateRecipientRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/recipients")
	defer cancel()

	res, err := h.flow.CreateRecipient(ctx, accountID, &req, h.metadata(c))
	if err != nil {
		return h.recipientError(c, err, "Failed to create recipient", "CREATE_RECIPIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Recipient created successfully", res)
}

// UpdateRecipient changes a guest
// @Summary Update recipient
// @Tags Recipients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipient ID"
// @Param request body dto.UpdateRecipientRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.RecipientDTO} "Recipient updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 404 {object} dto.APIResponse "Recipient not found"
// @Failure 409 {object} dto.APIResponse "Phone already on the guest list"
// @Router /api/v1/recipients/{id} [put]
func (h *RecipientHandler) UpdateRecipient(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	recipientID, ok, err := h.recipientIDParam(c)
	if !ok {
		return err
	}
	var req dto.UpdateRecipientRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/recipients/:id")
	defer cancel()

	res, err := h.flow.UpdateRecipient(ctx, accountID, recipientID, &req, h.metadata(c))
	if err != nil {
		return h.recipientError(c, err, "Failed to update recipient", "UPDATE_RECIPIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Recipient updated successfully", res)
}

// DeleteRecipient removes a guest and its event memberships
// @Summary Delete recipient
// @Tags Recipients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipient ID"
// @Success 200 {object} dto.APIResponse "Recipient deleted"
// @Failure 404 {object} dto.APIResponse "Recipient not found"
// @Router /api/v1/recipients/{id} [delete]
func (h *RecipientHandler) DeleteRecipient(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	recipientID, ok, err := h.recipientIDParam(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/recipients/:id")
	defer cancel()

	if err := h.flow.DeleteRecipient(ctx, accountID, recipientID, h.metadata(c)); err != nil {
		return h.recipientError(c, err, "Failed to delete recipient", "DELETE_RECIPIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Recipient deleted successfully", nil)
}
