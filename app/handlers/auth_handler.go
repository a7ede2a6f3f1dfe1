package handlers

import (
	"errors"
	"log/slog"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/middleware"
	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Signup(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	RefreshToken(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	baseHandler
	signupFlow businessflow.SignupFlow
	loginFlow  businessflow.LoginFlow
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(signupFlow businessflow.SignupFlow, loginFlow businessflow.LoginFlow, v *validator.Validate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(v, logger),
		signupFlow:  signupFlow,
		loginFlow:   loginFlow,
	}
}

// Signup handles account registration
// @Summary Sign up
// @Description Create an account and receive a token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Account data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req dto.SignupRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/signup")
	defer cancel()

	result, err := h.signupFlow.Signup(ctx, &req, h.metadata(c))
	if err != nil {
		switch {
		case businessflow.IsEmailAlreadyExists(err):
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
		case businessflow.IsInvalidPhone(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
		case businessflow.IsFirstNameRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "First name is required", "FIRST_NAME_REQUIRED", nil)
		}
		h.logger.Error("Signup failed", "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Signup failed", "SIGNUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Account created successfully", result)
}

// Login handles email/password authentication
// @Summary Log in
// @Description Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Account inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/login")
	defer cancel()

	result, err := h.loginFlow.Login(ctx, &req, h.metadata(c))
	if err != nil {
		switch {
		case businessflow.IsAccountNotFound(err), businessflow.IsIncorrectPassword(err):
			// unknown email and wrong password are indistinguishable to the caller
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		case businessflow.IsAccountInactive(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		h.logger.Error("Login failed", "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// RefreshToken rotates a refresh token
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair. The old refresh token is revoked.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Tokens refreshed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid or expired refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/refresh")
	defer cancel()

	result, err := h.loginFlow.RefreshToken(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token has expired", "TOKEN_EXPIRED", nil)
		case errors.Is(err, services.ErrTokenRevoked):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token has been revoked", "TOKEN_REVOKED", nil)
		case errors.Is(err, services.ErrTokenInvalid):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "TOKEN_INVALID", nil)
		case businessflow.IsAccountNotFound(err), businessflow.IsAccountInactive(err):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account is not available", "ACCOUNT_UNAVAILABLE", nil)
		}
		h.logger.Error("Token refresh failed", "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Token refresh failed", "REFRESH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed successfully", result)
}

// Logout revokes the access token used for this request
// @Summary Log out
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	accountID, ok, err := h.accountID(c)
	if !ok {
		return err
	}
	token, ok := middleware.GetAccessTokenFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Access token is required", "MISSING_ACCESS_TOKEN", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/auth/logout")
	defer cancel()

	if err := h.loginFlow.Logout(ctx, accountID, token, h.metadata(c)); err != nil {
		h.logger.Error("Logout failed", "account_id", accountID, "error", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}
