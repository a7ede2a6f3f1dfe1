// Package businessflow contains the core business logic and use cases for authentication workflows
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
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignupFlow handles account registration
type SignupFlow interface {
	Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	accountRepo  repository.AccountRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	bcryptCost   int
	db           *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	bcryptCost int,
	db *gorm.DB,
) SignupFlow {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &SignupFlowImpl{
		accountRepo:  accountRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		bcryptCost:   bcryptCost,
		db:           db,
	}
}

// Signup creates an account and signs it in
func (sf *SignupFlowImpl) Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, NewBusinessError("SIGNUP_VALIDATION_FAILED", "Signup validation failed", ErrFirstNameRequired)
	}

	var phone *string
	if p := utils.TrimmedPtr(req.Phone); p != nil {
		if !utils.IsValidPhone(*p) {
			return nil, NewBusinessError("SIGNUP_VALIDATION_FAILED", "Signup validation failed", ErrInvalidPhone)
		}
		phone = utils.ToPtr(utils.NormalizePhone(*p))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), sf.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	account := &models.Account{
		UUID:         uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     utils.TrimmedPtr(req.LastName),
		Phone:        phone,
		IsActive:     utils.ToPtr(true),
	}

	err = repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		existing, err := sf.accountRepo.ByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}
		return sf.accountRepo.Save(ctx, account)
	})
	if err != nil {
		errMsg := err.Error()
		_ = writeAudit(ctx, sf.auditRepo, auditEntry{
			action:      models.AuditActionSignupCompleted,
			description: "Signup failed for " + email,
			success:     false,
			errMsg:      &errMsg,
		}, metadata)
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	pair, err := sf.tokenService.GenerateTokens(account.ID)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	_ = writeAudit(ctx, sf.auditRepo, auditEntry{
		accountID:   &account.ID,
		action:      models.AuditActionSignupCompleted,
		description: fmt.Sprintf("Account %d signed up", account.ID),
		success:     true,
	}, metadata)

	return &dto.AuthResponse{
		Account: ToAccountDTO(*account),
		Session: ToSessionDTO(pair),
	}, nil
}
