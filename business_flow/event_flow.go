package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventFlow handles events and their recipient sets
type EventFlow interface {
	CreateEvent(ctx context.Context, accountID uint, req *dto.CreateEventRequest, metadata *ClientMetadata) (*dto.EventWriteResponse, error)
	UpdateEvent(ctx context.Context, accountID uint, eventUUID uuid.UUID, req *dto.UpdateEventRequest, metadata *ClientMetadata) (*dto.EventWriteResponse, error)
	GetEvent(ctx context.Context, accountID uint, eventUUID uuid.UUID) (*dto.EventDTO, error)
	ListEvents(ctx context.Context, accountID uint, req *dto.ListEventsRequest) (*dto.ListEventsResponse, error)
	DeleteEvent(ctx context.Context, accountID uint, eventUUID uuid.UUID, metadata *ClientMetadata) error
}

// EventFlowImpl implements EventFlow
type EventFlowImpl struct {
	eventRepo     repository.EventRepository
	recipientRepo repository.RecipientRepository
	auditRepo     repository.AuditLogRepository
	resolver      RecipientFlow
	db            *gorm.DB
}

// NewEventFlow creates a new event flow instance
func NewEventFlow(
	eventRepo repository.EventRepository,
	recipientRepo repository.RecipientRepository,
	auditRepo repository.AuditLogRepository,
	resolver RecipientFlow,
	db *gorm.DB,
) EventFlow {
	return &EventFlowImpl{
		eventRepo:     eventRepo,
		recipientRepo: recipientRepo,
		auditRepo:     auditRepo,
		resolver:      resolver,
		db:            db,
	}
}

// CreateEvent stores a new event and links the recipients matched by phone
func (f *EventFlowImpl) CreateEvent(ctx context.Context, accountID uint, req *dto.CreateEventRequest, metadata *ClientMetadata) (*dto.EventWriteResponse, error) {
	if err := validateEventRequest(req); err != nil {
		return nil, NewBusinessError("EVENT_VALIDATION_FAILED", "Event validation failed", err)
	}

	resolution, err := f.resolver.Resolve(ctx, accountID, req.RecipientPhones)
	if err != nil {
		return nil, NewBusinessError("EVENT_CREATE_FAILED", "Failed to create event", err)
	}

	event := &models.Event{UUID: uuid.New(), CreatedBy: accountID}
	applyEventFields(event, req)

	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.eventRepo.Save(ctx, event); err != nil {
			return err
		}
		return f.eventRepo.ReplaceRecipients(ctx, event.ID, recipientIDs(resolution.Matched))
	})
	if err != nil {
		return nil, NewBusinessError("EVENT_CREATE_FAILED", "Failed to create event", err)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionEventCreated,
		description: fmt.Sprintf("Event %s created", event.UUID),
		success:     true,
		extra:       map[string]any{"recipients": len(resolution.Matched), "unmatched": len(resolution.Unmatched)},
	}, metadata)

	event.Recipients = resolution.Matched
	return &dto.EventWriteResponse{Event: ToEventDTO(*event), UnmatchedPhones: resolution.Unmatched}, nil
}

// UpdateEvent replaces an owned event's fields and recipient set
func (f *EventFlowImpl) UpdateEvent(ctx context.Context, accountID uint, eventUUID uuid.UUID, req *dto.UpdateEventRequest, metadata *ClientMetadata) (*dto.EventWriteResponse, error) {
	if err := validateEventRequest(req); err != nil {
		return nil, NewBusinessError("EVENT_VALIDATION_FAILED", "Event validation failed", err)
	}

	event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, eventUUID)
	if err != nil {
		return nil, NewBusinessError("EVENT_UPDATE_FAILED", "Failed to update event", err)
	}

	resolution, err := f.resolver.Resolve(ctx, accountID, req.RecipientPhones)
	if err != nil {
		return nil, NewBusinessError("EVENT_UPDATE_FAILED", "Failed to update event", err)
	}

	applyEventFields(event, req)

	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.eventRepo.Update(ctx, event); err != nil {
			return err
		}
		return f.eventRepo.ReplaceRecipients(ctx, event.ID, recipientIDs(resolution.Matched))
	})
	if err != nil {
		return nil, NewBusinessError("EVENT_UPDATE_FAILED", "Failed to update event", err)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionEventUpdated,
		description: fmt.Sprintf("Event %s updated", event.UUID),
		success:     true,
	}, metadata)

	event.Recipients = resolution.Matched
	return &dto.EventWriteResponse{Event: ToEventDTO(*event), UnmatchedPhones: resolution.Unmatched}, nil
}

// GetEvent returns an owned event with its recipients
func (f *EventFlowImpl) GetEvent(ctx context.Context, accountID uint, eventUUID uuid.UUID) (*dto.EventDTO, error) {
	event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, eventUUID)
	if err != nil {
		return nil, NewBusinessError("EVENT_GET_FAILED", "Failed to get event", err)
	}
	recipients, err := loadEventRecipients(ctx, f.eventRepo, f.recipientRepo, event.ID)
	if err != nil {
		return nil, NewBusinessError("EVENT_GET_FAILED", "Failed to get event", err)
	}
	event.Recipients = recipients
	out := ToEventDTO(*event)
	return &out, nil
}

// ListEvents pages through the caller's events, newest first
func (f *EventFlowImpl) ListEvents(ctx context.Context, accountID uint, req *dto.ListEventsRequest) (*dto.ListEventsResponse, error) {
	if err := validatePage(req.Page, req.PageSize); err != nil {
		return nil, NewBusinessError("EVENT_LIST_VALIDATION_FAILED", "Event list validation failed", err)
	}

	filter := models.EventFilter{CreatedBy: &accountID}
	total, err := f.eventRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("EVENT_LIST_FAILED", "Failed to list events", err)
	}

	offset := int((req.Page - 1) * req.PageSize)
	events, err := f.eventRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", int(req.PageSize), offset)
	if err != nil {
		return nil, NewBusinessError("EVENT_LIST_FAILED", "Failed to list events", err)
	}

	items := make([]dto.EventDTO, 0, len(events))
	for _, e := range events {
		recipients, err := loadEventRecipients(ctx, f.eventRepo, f.recipientRepo, e.ID)
		if err != nil {
			return nil, NewBusinessError("EVENT_LIST_FAILED", "Failed to list events", err)
		}
		e.Recipients = recipients
		items = append(items, ToEventDTO(*e))
	}

	return &dto.ListEventsResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(req.Page, req.PageSize, total),
	}, nil
}

// DeleteEvent removes an owned event and its recipient links. The delivery log is kept.
func (f *EventFlowImpl) DeleteEvent(ctx context.Context, accountID uint, eventUUID uuid.UUID, metadata *ClientMetadata) error {
	event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, eventUUID)
	if err != nil {
		return NewBusinessError("EVENT_DELETE_FAILED", "Failed to delete event", err)
	}

	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		return f.eventRepo.Delete(ctx, event.ID)
	})
	if err != nil {
		return NewBusinessError("EVENT_DELETE_FAILED", "Failed to delete event", err)
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionEventDeleted,
		description: fmt.Sprintf("Event %s deleted", event.UUID),
		success:     true,
	}, metadata)
	return nil
}

func validateEventRequest(req *dto.CreateEventRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return ErrEventMessageRequired
	}
	if len(req.RecipientPhones) == 0 {
		return ErrEventRecipientsRequired
	}
	return nil
}

func applyEventFields(event *models.Event, req *dto.CreateEventRequest) {
	event.Title = strings.TrimSpace(req.Title)
	event.Date = req.Date
	event.StartTime = req.StartTime
	event.EndTime = utils.TrimmedPtr(req.EndTime)
	event.Location = utils.TrimmedPtr(req.Location)
	event.LocationLat = req.LocationLat
	event.LocationLng = req.LocationLng
	event.Input = req.Input
	event.Message = req.Message
	event.Tone = strings.TrimSpace(req.Tone)
}

// loadOwnedEvent fetches an event and checks that accountID created it
func loadOwnedEvent(ctx context.Context, repo repository.EventRepository, accountID uint, eventUUID uuid.UUID) (*models.Event, error) {
	event, err := repo.ByUUID(ctx, eventUUID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.CreatedBy != accountID {
		return nil, ErrEventAccessDenied
	}
	return event, nil
}

// loadEventRecipients returns the event's recipients in link order
func loadEventRecipients(ctx context.Context, eventRepo repository.EventRepository, recipientRepo repository.RecipientRepository, eventID uint) ([]*models.Recipient, error) {
	ids, err := eventRepo.RecipientIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Recipient{}, nil
	}
	rows, err := recipientRepo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Recipient, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]*models.Recipient, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func recipientIDs(recipients []*models.Recipient) []uint {
	ids := make([]uint, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ID)
	}
	return ids
}
