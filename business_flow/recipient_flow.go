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

// Resolution is the result of matching phone numbers against an owner's recipients
type Resolution struct {
	// Matched keeps the order of the requested phones
	Matched []*models.Recipient
	// Unmatched holds the requested phones (normalized when possible) with no recipient
	Unmatched []string
}

// RecipientFlow handles the guest list of an account
type RecipientFlow interface {
	Resolve(ctx context.Context, ownerID uint, phones []string) (*Resolution, error)
	CreateRecipient(ctx context.Context, accountID uint, req *dto.CreateRecipientRequest, metadata *ClientMetadata) (*dto.RecipientDTO, error)
	UpdateRecipient(ctx context.Context, accountID, recipientID uint, req *dto.UpdateRecipientRequest, metadata *ClientMetadata) (*dto.RecipientDTO, error)
	DeleteRecipient(ctx context.Context, accountID, recipientID uint, metadata *ClientMetadata) error
	ListRecipients(ctx context.Context, accountID uint, req *dto.ListRecipientsRequest) (*dto.ListRecipientsResponse, error)
}

// RecipientFlowImpl implements RecipientFlow
type RecipientFlowImpl struct {
	recipientRepo repository.RecipientRepository
	auditRepo     repository.AuditLogRepository
}

// NewRecipientFlow creates a new recipient flow instance
func NewRecipientFlow(recipientRepo repository.RecipientRepository, auditRepo repository.AuditLogRepository) RecipientFlow {
	return &RecipientFlowImpl{
		recipientRepo: recipientRepo,
		auditRepo:     auditRepo,
	}
}

// Resolve normalizes and de-duplicates phones, then matches them against the owner's recipients
func (f *RecipientFlowImpl) Resolve(ctx context.Context, ownerID uint, phones []string) (*Resolution, error) {
	res := &Resolution{Matched: []*models.Recipient{}, Unmatched: []string{}}

	seen := make(map[string]bool, len(phones))
	normalized := make([]string, 0, len(phones))
	for _, raw := range phones {
		p := utils.NormalizePhone(raw)
		if p == "" || !utils.IsValidPhone(p) {
			if trimmed := strings.TrimSpace(raw); trimmed != "" && !seen[trimmed] {
				seen[trimmed] = true
				res.Unmatched = append(res.Unmatched, trimmed)
			}
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		normalized = append(normalized, p)
	}
	if len(normalized) == 0 {
		return res, nil
	}

	found, err := f.recipientRepo.ByOwnerAndPhones(ctx, ownerID, normalized)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_RESOLVE_FAILED", "Failed to resolve recipients", err)
	}
	byPhone := make(map[string]*models.Recipient, len(found))
	for _, r := range found {
		byPhone[r.Phone] = r
	}

	for _, p := range normalized {
		if r, ok := byPhone[p]; ok {
			res.Matched = append(res.Matched, r)
		} else {
			res.Unmatched = append(res.Unmatched, p)
		}
	}
	return res, nil
}

// CreateRecipient adds a contact to the caller's guest list
func (f *RecipientFlowImpl) CreateRecipient(ctx context.Context, accountID uint, req *dto.CreateRecipientRequest, metadata *ClientMetadata) (*dto.RecipientDTO, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, NewBusinessError("RECIPIENT_VALIDATION_FAILED", "Recipient validation failed", ErrFirstNameRequired)
	}
	phone, err := normalizeValidPhone(req.Phone)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_VALIDATION_FAILED", "Recipient validation failed", err)
	}

	exists, err := f.recipientRepo.Exists(ctx, models.RecipientFilter{CreatedBy: &accountID, Phone: &phone})
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_CREATE_FAILED", "Failed to create recipient", err)
	}
	if exists {
		return nil, NewBusinessError("RECIPIENT_CREATE_FAILED", "Failed to create recipient", ErrRecipientPhoneExists)
	}

	recipient := &models.Recipient{
		CreatedBy: accountID,
		FirstName: firstName,
		LastName:  utils.TrimmedPtr(req.LastName),
		Phone:     phone,
	}
	if err := f.recipientRepo.Save(ctx, recipient); err != nil {
		return nil, NewBusinessError("RECIPIENT_CREATE_FAILED", "Failed to create recipient", err)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionRecipientCreated,
		description: fmt.Sprintf("Recipient %d created", recipient.ID),
		success:     true,
	}, metadata)

	out := ToRecipientDTO(*recipient)
	return &out, nil
}

// UpdateRecipient changes the provided fields of an owned recipient
func (f *RecipientFlowImpl) UpdateRecipient(ctx context.Context, accountID, recipientID uint, req *dto.UpdateRecipientRequest, metadata *ClientMetadata) (*dto.RecipientDTO, error) {
	recipient, err := f.ownedRecipient(ctx, accountID, recipientID)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_UPDATE_FAILED", "Failed to update recipient", err)
	}

	if req.FirstName != nil {
		firstName := strings.TrimSpace(*req.FirstName)
		if firstName == "" {
			return nil, NewBusinessError("RECIPIENT_VALIDATION_FAILED", "Recipient validation failed", ErrFirstNameRequired)
		}
		recipient.FirstName = firstName
	}
	if req.LastName != nil {
		recipient.LastName = utils.TrimmedPtr(req.LastName)
	}
	if req.Phone != nil {
		phone, err := normalizeValidPhone(*req.Phone)
		if err != nil {
			return nil, NewBusinessError("RECIPIENT_VALIDATION_FAILED", "Recipient validation failed", err)
		}
		if phone != recipient.Phone {
			exists, err := f.recipientRepo.Exists(ctx, models.RecipientFilter{CreatedBy: &accountID, Phone: &phone})
			if err != nil {
				return nil, NewBusinessError("RECIPIENT_UPDATE_FAILED", "Failed to update recipient", err)
			}
			if exists {
				return nil, NewBusinessError("RECIPIENT_UPDATE_FAILED", "Failed to update recipient", ErrRecipientPhoneExists)
			}
			recipient.Phone = phone
		}
	}
	if req.OptedOut != nil {
		recipient.OptedOut = *req.OptedOut
	}

	if err := f.recipientRepo.Update(ctx, recipient); err != nil {
		return nil, NewBusinessError("RECIPIENT_UPDATE_FAILED", "Failed to update recipient", err)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionRecipientUpdated,
		description: fmt.Sprintf("Recipient %d updated", recipient.ID),
		success:     true,
	}, metadata)

	out := ToRecipientDTO(*recipient)
	return &out, nil
}

// DeleteRecipient removes an owned recipient and its event memberships
func (f *RecipientFlowImpl) DeleteRecipient(ctx context.Context, accountID, recipientID uint, metadata *ClientMetadata) error {
	deleted, err := f.recipientRepo.Delete(ctx, accountID, recipientID)
	if err != nil {
		return NewBusinessError("RECIPIENT_DELETE_FAILED", "Failed to delete recipient", err)
	}
	if !deleted {
		return NewBusinessError("RECIPIENT_DELETE_FAILED", "Failed to delete recipient", ErrRecipientNotFound)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionRecipientDeleted,
		description: fmt.Sprintf("Recipient %d deleted", recipientID),
		success:     true,
	}, metadata)
	return nil
}

// ListRecipients pages through the caller's recipients ordered by first name
func (f *RecipientFlowImpl) ListRecipients(ctx context.Context, accountID uint, req *dto.ListRecipientsRequest) (*dto.ListRecipientsResponse, error) {
	if err := validatePage(req.Page, req.PageSize); err != nil {
		return nil, NewBusinessError("RECIPIENT_LIST_VALIDATION_FAILED", "Recipient list validation failed", err)
	}

	filter := models.RecipientFilter{CreatedBy: &accountID}
	if search := strings.TrimSpace(req.Search); search != "" {
		filter.Search = &search
	}

	total, err := f.recipientRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_LIST_FAILED", "Failed to list recipients", err)
	}

	offset := int((req.Page - 1) * req.PageSize)
	rows, err := f.recipientRepo.ByFilter(ctx, filter, "first_name ASC, id ASC", int(req.PageSize), offset)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_LIST_FAILED", "Failed to list recipients", err)
	}

	items := make([]dto.RecipientDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToRecipientDTO(*r))
	}
	return &dto.ListRecipientsResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(req.Page, req.PageSize, total),
	}, nil
}

func (f *RecipientFlowImpl) ownedRecipient(ctx context.Context, accountID, recipientID uint) (*models.Recipient, error) {
	recipient, err := f.recipientRepo.ByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}
	if recipient.CreatedBy != accountID {
		return nil, ErrRecipientAccessDenied
	}
	return recipient, nil
}

func normalizeValidPhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrRecipientPhoneRequired
	}
	if !utils.IsValidPhone(raw) {
		return "", ErrInvalidPhone
	}
	return utils.NormalizePhone(raw), nil
}
