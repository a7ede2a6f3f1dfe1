package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/services"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
	"golang.org/x/crypto/bcrypt"
)

// LoginFlow handles sign in, token refresh and sign out
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, accountID uint, accessToken string, metadata *ClientMetadata) error
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	accountRepo  repository.AccountRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
) LoginFlow {
	return &LoginFlowImpl{
		accountRepo:  accountRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
	}
}

// Login authenticates an account with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	account, err := lf.authenticate(ctx, email, req.Password)
	if err != nil {
		var accountID *uint
		if account != nil {
			accountID = &account.ID
		}
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = writeAudit(ctx, lf.auditRepo, auditEntry{
			accountID:   accountID,
			action:      models.AuditActionLoginFailed,
			description: "Login failed for " + email,
			success:     false,
			errMsg:      &errMsg,
		}, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	pair, err := lf.tokenService.GenerateTokens(account.ID)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	_ = writeAudit(ctx, lf.auditRepo, auditEntry{
		accountID:   &account.ID,
		action:      models.AuditActionLoginSuccess,
		description: fmt.Sprintf("Account logged in successfully: %d", account.ID),
		success:     true,
	}, metadata)

	return &dto.AuthResponse{
		Account: ToAccountDTO(*account),
		Session: ToSessionDTO(pair),
	}, nil
}

// authenticate returns the account even on a password mismatch so the failure can be attributed
func (lf *LoginFlowImpl) authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := lf.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !utils.IsTrue(account.IsActive) {
		return account, ErrAccountInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return account, ErrIncorrectPassword
	}
	return account, nil
}

// RefreshToken rotates a refresh token into a new token pair
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.AuthResponse, error) {
	claims, err := lf.tokenService.ValidateToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}

	account, err := lf.accountRepo.ByID(ctx, claims.AccountID)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}
	if account == nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", ErrAccountNotFound)
	}
	if !utils.IsTrue(account.IsActive) {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", ErrAccountInactive)
	}

	pair, err := lf.tokenService.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}

	return &dto.AuthResponse{
		Account: ToAccountDTO(*account),
		Session: ToSessionDTO(pair),
	}, nil
}

// Logout revokes the presented access token until it expires
func (lf *LoginFlowImpl) Logout(ctx context.Context, accountID uint, accessToken string, metadata *ClientMetadata) error {
	if err := lf.tokenService.RevokeToken(ctx, accessToken); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}

	_ = writeAudit(ctx, lf.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionLogout,
		description: fmt.Sprintf("Account %d logged out", accountID),
		success:     true,
	}, metadata)
	return nil
}
