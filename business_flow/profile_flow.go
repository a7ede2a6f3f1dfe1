package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
)

type ProfileFlow interface {
	GetProfile(ctx context.Context, accountID uint) (*dto.AccountDTO, error)
	UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.AccountDTO, error)
}

type ProfileFlowImpl struct {
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditLogRepository
}

func NewProfileFlow(accountRepo repository.AccountRepository, auditRepo repository.AuditLogRepository) ProfileFlow {
	return &ProfileFlowImpl{accountRepo: accountRepo, auditRepo: auditRepo}
}

func (f *ProfileFlowImpl) GetProfile(ctx context.Context, accountID uint) (*dto.AccountDTO, error) {
	account, err := f.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := ToAccountDTO(*account)
	return &out, nil
}

// UpdateProfile replaces the editable fields. The phone is where replies get forwarded.
func (f *ProfileFlowImpl) UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, NewBusinessError("PROFILE_VALIDATION_FAILED", "Profile validation failed", ErrFirstNameRequired)
	}

	var phone *string
	if p := utils.TrimmedPtr(req.Phone); p != nil {
		if !utils.IsValidPhone(*p) {
			return nil, NewBusinessError("PROFILE_VALIDATION_FAILED", "Profile validation failed", ErrInvalidPhone)
		}
		phone = utils.ToPtr(utils.NormalizePhone(*p))
	}

	account, err := f.account(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account.FirstName = firstName
	account.LastName = utils.TrimmedPtr(req.LastName)
	account.Phone = phone
	account.Birthday = utils.TrimmedPtr(req.Birthday)

	if err := f.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to update profile", err)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionProfileUpdated,
		description: fmt.Sprintf("Profile of account %d updated", accountID),
		success:     true,
	}, metadata)

	out := ToAccountDTO(*account)
	return &out, nil
}

func (f *ProfileFlowImpl) account(ctx context.Context, accountID uint) (*models.Account, error) {
	if accountID == 0 {
		return nil, NewBusinessError("ACCOUNT_ID_REQUIRED", "account_id must be greater than 0", ErrAccountNotFound)
	}
	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_FETCH_FAILED", "Failed to fetch account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}
	return account, nil
}
