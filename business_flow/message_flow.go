package businessflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/services"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MessageFlow covers message text generation and delivery log queries
type MessageFlow interface {
	GenerateMessage(ctx context.Context, accountID uint, req *dto.GenerateMessageRequest) (*dto.GenerateMessageResponse, error)
	ListSentMessages(ctx context.Context, accountID uint, req *dto.ListSentMessagesRequest) (*dto.ListSentMessagesResponse, error)
	ExportSentMessages(ctx context.Context, accountID uint, eventUUID *uuid.UUID, metadata *ClientMetadata) (*dto.ExportSentMessagesResponse, error)
}

// MessageFlowImpl implements MessageFlow
type MessageFlowImpl struct {
	eventRepo       repository.EventRepository
	sentMessageRepo repository.SentMessageRepository
	auditRepo       repository.AuditLogRepository
	generator       services.MessageGenerator
	archiver        services.ExportArchiver
	logger          *slog.Logger
}

// NewMessageFlow creates a new message flow instance. archiver may be nil.
func NewMessageFlow(
	eventRepo repository.EventRepository,
	sentMessageRepo repository.SentMessageRepository,
	auditRepo repository.AuditLogRepository,
	generator services.MessageGenerator,
	archiver services.ExportArchiver,
	logger *slog.Logger,
) MessageFlow {
	if generator == nil {
		generator = services.TemplateGenerator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageFlowImpl{
		eventRepo:       eventRepo,
		sentMessageRepo: sentMessageRepo,
		auditRepo:       auditRepo,
		generator:       generator,
		archiver:        archiver,
		logger:          logger.With("component", "messages"),
	}
}

// GenerateMessage turns free-form event details into a short invitation text
func (f *MessageFlowImpl) GenerateMessage(ctx context.Context, accountID uint, req *dto.GenerateMessageRequest) (*dto.GenerateMessageResponse, error) {
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = utils.DefaultMessageTone
	}

	text, err := f.generator.Generate(ctx, req.Input, tone)
	if err != nil {
		f.logger.Warn("Message generation failed", "account_id", accountID, "error", err)
		return nil, NewBusinessError("GENERATION_FAILED", "Message generation failed", fmt.Errorf("%w: %w", ErrGenerationFailed, err))
	}

	return &dto.GenerateMessageResponse{Message: text, Tone: tone}, nil
}

// ListSentMessages pages through the caller's delivery log, newest first
func (f *MessageFlowImpl) ListSentMessages(ctx context.Context, accountID uint, req *dto.ListSentMessagesRequest) (*dto.ListSentMessagesResponse, error) {
	if err := validatePage(req.Page, req.PageSize); err != nil {
		return nil, NewBusinessError("MESSAGE_LIST_VALIDATION_FAILED", "Message list validation failed", err)
	}

	filter := models.SentMessageFilter{FromAccountID: &accountID}
	if req.EventUUID != nil {
		eventUUID, err := uuid.Parse(*req.EventUUID)
		if err != nil {
			return nil, NewBusinessError("MESSAGE_LIST_FAILED", "Failed to list messages", ErrEventNotFound)
		}
		event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, eventUUID)
		if err != nil {
			return nil, NewBusinessError("MESSAGE_LIST_FAILED", "Failed to list messages", err)
		}
		filter.EventID = &event.ID
	}
	if s := utils.TrimmedPtr(req.Status); s != nil {
		status := models.MessageStatus(strings.ToLower(*s))
		filter.Status = &status
	}
	if req.Channel != nil {
		channel, err := models.ParseChannel(*req.Channel)
		if err != nil {
			return nil, NewBusinessError("MESSAGE_LIST_VALIDATION_FAILED", "Message list validation failed", ErrInvalidChannel)
		}
		filter.Channel = &channel
	}

	total, err := f.sentMessageRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LIST_FAILED", "Failed to list messages", err)
	}
	offset := int((req.Page - 1) * req.PageSize)
	rows, err := f.sentMessageRepo.ByFilter(ctx, filter, "sent_at DESC, id DESC", int(req.PageSize), offset)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LIST_FAILED", "Failed to list messages", err)
	}

	items := make([]dto.SentMessageDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToSentMessageDTO(*r))
	}
	return &dto.ListSentMessagesResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(req.Page, req.PageSize, total),
	}, nil
}

// ExportSentMessages writes the caller's delivery log (optionally one event) to an XLSX workbook
// with one sheet per channel. When an archiver is configured the workbook is uploaded too.
func (f *MessageFlowImpl) ExportSentMessages(ctx context.Context, accountID uint, eventUUID *uuid.UUID, metadata *ClientMetadata) (*dto.ExportSentMessagesResponse, error) {
	filter := models.SentMessageFilter{FromAccountID: &accountID}
	scope := "all"
	if eventUUID != nil {
		event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, *eventUUID)
		if err != nil {
			return nil, NewBusinessError("EXPORT_FAILED", "Failed to export messages", err)
		}
		filter.EventID = &event.ID
		scope = event.UUID.String()
	}

	rows, err := f.sentMessageRepo.ByFilter(ctx, filter, "sent_at ASC, id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("EXPORT_FAILED", "Failed to export messages", err)
	}

	content, err := buildSentMessagesWorkbook(rows)
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	now := utils.UTCNow()
	resp := &dto.ExportSentMessagesResponse{
		FileName: fmt.Sprintf("sent_messages_%s.xlsx", now.Format("20060102T150405Z")),
		Content:  content,
		Rows:     len(rows),
	}

	if f.archiver != nil {
		name := fmt.Sprintf("account_%d/%s", accountID, resp.FileName)
		key, err := f.archiver.Archive(ctx, name, content, xlsxContentType)
		if err != nil {
			f.logger.Warn("Export archive failed", "account_id", accountID, "error", err)
		} else {
			resp.ArchiveKey = key
		}
	}

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionExportGenerated,
		description: fmt.Sprintf("Delivery log exported (%s)", scope),
		success:     true,
		extra:       map[string]any{"rows": resp.Rows, "archive_key": resp.ArchiveKey},
	}, metadata)

	return resp, nil
}

var sentMessageHeader = []string{
	"id", "event_id", "recipient_id", "to_phone", "channel", "status",
	"provider_message_id", "error_code", "error_message", "message_body",
	"sent_at", "delivery_status_updated_at",
}

// buildSentMessagesWorkbook groups rows by channel into sheets named after the channel
func buildSentMessagesWorkbook(rows []*models.SentMessage) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	byChannel := make(map[models.Channel][]*models.SentMessage)
	order := make([]models.Channel, 0, 2)
	for _, r := range rows {
		if _, ok := byChannel[r.Channel]; !ok {
			order = append(order, r.Channel)
		}
		byChannel[r.Channel] = append(byChannel[r.Channel], r)
	}
	if len(order) == 0 {
		order = append(order, models.ChannelSMS)
	}

	for i, channel := range order {
		name := channel.String()
		if i == 0 {
			if err := xl.SetSheetName(xl.GetSheetName(0), name); err != nil {
				return nil, err
			}
		} else if _, err := xl.NewSheet(name); err != nil {
			return nil, err
		}

		header := sentMessageHeader
		if err := xl.SetSheetRow(name, "A1", &header); err != nil {
			return nil, err
		}
		for ri, r := range byChannel[channel] {
			record := []string{
				strconv.FormatUint(uint64(r.ID), 10),
				strconv.FormatUint(uint64(r.EventID), 10),
				strconv.FormatUint(uint64(r.RecipientID), 10),
				r.ToPhone,
				r.Channel.String(),
				string(r.Status),
				utils.Deref(r.ProviderMessageID),
				utils.Deref(r.ErrorCode),
				utils.Deref(r.ErrorMessage),
				r.MessageBody,
				r.SentAt.UTC().Format(time.RFC3339),
				utils.Deref(utils.FormatTimePtr(r.DeliveryStatusUpdatedAt)),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			if err := xl.SetSheetRow(name, cellRef, &record); err != nil {
				return nil, err
			}
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
