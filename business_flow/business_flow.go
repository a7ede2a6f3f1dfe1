// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/services"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
	"gorm.io/datatypes"
)

type contextKey string

const (
	// RequestIDKey carries the request id from the HTTP layer into audit records
	RequestIDKey contextKey = "request_id"
	// EndpointKey carries the handling route for audit metadata
	EndpointKey contextKey = "endpoint"
)

// ClientMetadata holds client information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// auditEntry describes one audit_log row
type auditEntry struct {
	accountID   *uint
	action      string
	description string
	success     bool
	errMsg      *string
	extra       map[string]any
}

// writeAudit stores an audit record. Failures are returned but callers usually ignore them.
func writeAudit(ctx context.Context, repo repository.AuditLogRepository, entry auditEntry, metadata *ClientMetadata) error {
	if repo == nil {
		return nil
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:    entry.accountID,
		Action:       entry.action,
		Description:  &entry.description,
		Success:      utils.ToPtr(entry.success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: entry.errMsg,
	}

	if endpoint, ok := ctx.Value(EndpointKey).(string); ok && endpoint != "" {
		if entry.extra == nil {
			entry.extra = map[string]any{}
		}
		entry.extra["endpoint"] = endpoint
	}
	if len(entry.extra) > 0 {
		if raw, err := json.Marshal(entry.extra); err == nil {
			audit.Metadata = datatypes.JSON(raw)
		}
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		audit.RequestID = &requestID
	} else if metadata != nil && metadata.RequestID != "" {
		audit.RequestID = utils.ToPtr(metadata.RequestID)
	}

	return repo.Save(ctx, audit)
}

// validatePage checks 1-based pagination input
func validatePage(page, pageSize uint) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return ErrInvalidPageSize
	}
	return nil
}

// ToAccountDTO converts an account model to its public view
func ToAccountDTO(account models.Account) dto.AccountDTO {
	return dto.AccountDTO{
		ID:        account.ID,
		UUID:      account.UUID.String(),
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Phone:     account.Phone,
		Birthday:  account.Birthday,
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

// ToRecipientDTO converts a recipient model to its public view
func ToRecipientDTO(r models.Recipient) dto.RecipientDTO {
	return dto.RecipientDTO{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		FullName:  r.FullName(),
		Phone:     r.Phone,
		OptedOut:  r.OptedOut,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ToEventDTO converts an event model and its loaded recipients to the public view
func ToEventDTO(e models.Event) dto.EventDTO {
	recipients := make([]dto.RecipientDTO, 0, len(e.Recipients))
	for _, r := range e.Recipients {
		recipients = append(recipients, ToRecipientDTO(*r))
	}
	return dto.EventDTO{
		UUID:        e.UUID.String(),
		Title:       e.Title,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		LocationLat: e.LocationLat,
		LocationLng: e.LocationLng,
		Input:       e.Input,
		Message:     e.Message,
		Tone:        e.Tone,
		Recipients:  recipients,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToSentMessageDTO converts a delivery log row to its public view
func ToSentMessageDTO(m models.SentMessage) dto.SentMessageDTO {
	return dto.SentMessageDTO{
		ID:                      m.ID,
		EventID:                 m.EventID,
		RecipientID:             m.RecipientID,
		ToPhone:                 m.ToPhone,
		MessageBody:             m.MessageBody,
		Channel:                 m.Channel.String(),
		ProviderMessageID:       m.ProviderMessageID,
		Status:                  string(m.Status),
		ErrorCode:               m.ErrorCode,
		ErrorMessage:            m.ErrorMessage,
		SentAt:                  m.SentAt,
		DeliveryStatusUpdatedAt: m.DeliveryStatusUpdatedAt,
	}
}

// ToSessionDTO converts an issued token pair to the response view
func ToSessionDTO(pair *services.TokenPair) dto.SessionDTO {
	return dto.SessionDTO{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}
