package handlers

import (
	"log/slog"

	"github.com/amirphl/partyline/app/dto"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type ProfileHandlerInterface interface {
	GetProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
}

type ProfileHandler struct {
	baseHandler
	flow businessflow.ProfileFlow
}

func NewProfileHandler(flow businessflow.ProfileFlow, v *validator.Validate, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{baseHandler: newBaseHandler(v, logger), flow: flow}
}

// GetProfile returns the authenticated account's profile
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Profile retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/profile")
	defer cancel()

	res, err := h.flow.GetProfile(ctx, accountID)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		h.logger.Error("Get profile failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get profile", "GET_PROFILE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile retrieved successfully", res)
}

// UpdateProfile replaces the editable profile fields
// @Summary Update profile
// @Description The phone number is where guest replies are forwarded
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Profile updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	var req dto.UpdateProfileRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/profile")
	defer cancel()

	res, err := h.flow.UpdateProfile(ctx, accountID, &req, h.metadata(c))
	if err != nil {
		switch {
		case businessflow.IsInvalidPhone(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
		case businessflow.IsFirstNameRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "First name is required", "FIRST_NAME_REQUIRED", nil)
		case businessflow.IsAccountNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		h.logger.Error("Update profile failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", "UPDATE_PROFILE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile updated successfully", res)
}
