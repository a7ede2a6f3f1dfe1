package businessflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/services"
	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Per-recipient dispatch statuses
const (
	DispatchStatusSent    = "sent"
	DispatchStatusSkipped = "skipped"
	DispatchStatusFailed  = "failed"
)

// Reasons attached to skipped results
const (
	SkipReasonOptedOut         = "opted_out"
	SkipReasonUnknownRecipient = "unknown_recipient"
)

// DispatchFlow sends event messages to recipients and writes the delivery log
type DispatchFlow interface {
	Dispatch(ctx context.Context, accountID uint, eventUUID uuid.UUID, req *dto.DispatchRequest, metadata *ClientMetadata) (*dto.DispatchResponse, error)
	DispatchToRecipients(ctx context.Context, accountID uint, event *models.Event, template string, recipients []*models.Recipient, channel models.Channel) []dto.DispatchResult
	SendSingle(ctx context.Context, accountID uint, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	LogSentMessage(ctx context.Context, accountID uint, req *dto.LogSentMessageRequest) (*dto.SentMessageDTO, error)
}

// DispatchFlowImpl implements DispatchFlow
type DispatchFlowImpl struct {
	eventRepo       repository.EventRepository
	recipientRepo   repository.RecipientRepository
	sentMessageRepo repository.SentMessageRepository
	auditRepo       repository.AuditLogRepository
	resolver        RecipientFlow
	transport       services.MessageTransport
	publisher       services.EventPublisher
	messaging       config.MessagingConfig
	logger          *slog.Logger
}

// NewDispatchFlow creates a new dispatch flow instance
func NewDispatchFlow(
	eventRepo repository.EventRepository,
	recipientRepo repository.RecipientRepository,
	sentMessageRepo repository.SentMessageRepository,
	auditRepo repository.AuditLogRepository,
	resolver RecipientFlow,
	transport services.MessageTransport,
	publisher services.EventPublisher,
	messaging config.MessagingConfig,
	logger *slog.Logger,
) DispatchFlow {
	if publisher == nil {
		publisher = services.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if messaging.WhatsAppFrom == "" {
		messaging.WhatsAppFrom = utils.DefaultWhatsAppSender
	}
	if messaging.DispatchConcurrency <= 0 {
		messaging.DispatchConcurrency = utils.DefaultDispatchConcurrency
	}
	return &DispatchFlowImpl{
		eventRepo:       eventRepo,
		recipientRepo:   recipientRepo,
		sentMessageRepo: sentMessageRepo,
		auditRepo:       auditRepo,
		resolver:        resolver,
		transport:       transport,
		publisher:       publisher,
		messaging:       messaging,
		logger:          logger.With("component", "dispatch"),
	}
}

// Dispatch sends an owned event's message on one channel.
// Results for phones not on the caller's guest list follow the resolved recipients.
func (f *DispatchFlowImpl) Dispatch(ctx context.Context, accountID uint, eventUUID uuid.UUID, req *dto.DispatchRequest, metadata *ClientMetadata) (*dto.DispatchResponse, error) {
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		return nil, NewBusinessError("DISPATCH_VALIDATION_FAILED", "Dispatch validation failed", ErrInvalidChannel)
	}

	event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, eventUUID)
	if err != nil {
		return nil, NewBusinessError("DISPATCH_FAILED", "Dispatch failed", err)
	}

	template := req.Message
	if strings.TrimSpace(template) == "" {
		template = event.Message
	}
	if strings.TrimSpace(template) == "" {
		return nil, NewBusinessError("DISPATCH_VALIDATION_FAILED", "Dispatch validation failed", ErrMessageBodyRequired)
	}

	var recipients []*models.Recipient
	var unmatched []string
	if len(req.RecipientPhones) > 0 {
		resolution, err := f.resolver.Resolve(ctx, accountID, req.RecipientPhones)
		if err != nil {
			return nil, NewBusinessError("DISPATCH_FAILED", "Dispatch failed", err)
		}
		recipients, unmatched = resolution.Matched, resolution.Unmatched
	} else {
		recipients, err = loadEventRecipients(ctx, f.eventRepo, f.recipientRepo, event.ID)
		if err != nil {
			return nil, NewBusinessError("DISPATCH_FAILED", "Dispatch failed", err)
		}
	}
	if len(recipients) == 0 && len(unmatched) == 0 {
		return nil, NewBusinessError("DISPATCH_VALIDATION_FAILED", "Dispatch validation failed", ErrNoRecipients)
	}

	results := f.DispatchToRecipients(ctx, accountID, event, template, recipients, channel)
	for _, phone := range unmatched {
		dispatchResultsTotal.WithLabelValues(DispatchStatusSkipped).Inc()
		results = append(results, dto.DispatchResult{
			Phone:  phone,
			Status: DispatchStatusSkipped,
			Reason: SkipReasonUnknownRecipient,
		})
	}

	resp := &dto.DispatchResponse{
		EventUUID: event.UUID.String(),
		Channel:   channel.String(),
		Results:   results,
		Summary:   summarize(results),
	}

	f.publish(ctx, services.RoutingKeyDispatchCompleted, map[string]any{
		"event_uuid": resp.EventUUID,
		"account_id": accountID,
		"channel":    resp.Channel,
		"summary":    resp.Summary,
	})

	_ = writeAudit(ctx, f.auditRepo, auditEntry{
		accountID:   &accountID,
		action:      models.AuditActionDispatchExecuted,
		description: fmt.Sprintf("Event %s dispatched on %s", event.UUID, channel),
		success:     resp.Summary.Failed == 0,
		extra: map[string]any{
			"sent":    resp.Summary.Sent,
			"skipped": resp.Summary.Skipped,
			"failed":  resp.Summary.Failed,
		},
	}, metadata)

	return resp, nil
}

// DispatchToRecipients sends template to each recipient independently and reports one result per
// recipient in input order. Opted-out recipients are never handed to the transport. A failed send
// writes no delivery log row and does not stop the other sends.
func (f *DispatchFlowImpl) DispatchToRecipients(ctx context.Context, accountID uint, event *models.Event, template string, recipients []*models.Recipient, channel models.Channel) []dto.DispatchResult {
	results := make([]dto.DispatchResult, len(recipients))

	var g errgroup.Group
	g.SetLimit(f.messaging.DispatchConcurrency)

	for i, recipient := range recipients {
		if recipient.OptedOut {
			results[i] = dto.DispatchResult{
				RecipientID: utils.ToPtr(recipient.ID),
				Phone:       recipient.Phone,
				Name:        recipient.FullName(),
				Status:      DispatchStatusSkipped,
				Reason:      SkipReasonOptedOut,
			}
			continue
		}
		g.Go(func() error {
			results[i] = f.sendToRecipient(ctx, accountID, event, template, recipient, channel)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		dispatchResultsTotal.WithLabelValues(r.Status).Inc()
	}
	return results
}

// sendToRecipient renders, sends and logs one message. It only writes to its own result.
func (f *DispatchFlowImpl) sendToRecipient(ctx context.Context, accountID uint, event *models.Event, template string, recipient *models.Recipient, channel models.Channel) dto.DispatchResult {
	result := dto.DispatchResult{
		RecipientID: utils.ToPtr(recipient.ID),
		Phone:       recipient.Phone,
		Name:        recipient.FullName(),
	}

	body := RenderMessage(template, recipient)
	toPhone := utils.NormalizePhone(recipient.Phone)

	providerID, err := f.transport.Send(ctx, newOutbound(f.messaging, channel, channel.Address(toPhone), "", body))
	if err != nil {
		f.logger.Warn("Send failed",
			"event_id", event.ID,
			"recipient_id", recipient.ID,
			"channel", channel,
			"error", err)
		result.Status = DispatchStatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = DispatchStatusSent
	result.ProviderMessageID = &providerID

	row := &models.SentMessage{
		EventID:           event.ID,
		RecipientID:       recipient.ID,
		FromAccountID:     accountID,
		ToPhone:           toPhone,
		MessageBody:       body,
		Channel:           channel,
		ProviderMessageID: &providerID,
		Status:            models.MessageStatusSent,
		SentAt:            utils.UTCNow(),
	}
	// The provider already accepted the message; a cancelled request must not drop its log row
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), utils.DeliveryLogWriteTimeout)
	defer cancel()
	if err := f.sentMessageRepo.Save(logCtx, row); err != nil {
		dispatchLogFailuresTotal.Inc()
		f.logger.Error("Delivery log write failed after send",
			"event_id", event.ID,
			"recipient_id", recipient.ID,
			"provider_message_id", providerID,
			"error", err)
		result.LogError = err.Error()
	}
	return result
}

// SendSingle sends one message and returns the provider's id. No delivery log row is written.
func (f *DispatchFlowImpl) SendSingle(ctx context.Context, accountID uint, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		return nil, NewBusinessError("SEND_VALIDATION_FAILED", "Send validation failed", ErrInvalidChannel)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, NewBusinessError("SEND_VALIDATION_FAILED", "Send validation failed", ErrMessageBodyRequired)
	}
	if !utils.IsValidPhone(req.To) {
		return nil, NewBusinessError("SEND_VALIDATION_FAILED", "Send validation failed", ErrInvalidPhone)
	}

	providerID, err := f.transport.Send(ctx, newOutbound(f.messaging, channel, channel.Address(req.To), "", req.Body))
	if err != nil {
		f.logger.Warn("Single send failed", "account_id", accountID, "channel", channel, "error", err)
		return nil, NewBusinessError("SEND_FAILED", "Message send failed", fmt.Errorf("%w: %w", ErrTransportFailed, err))
	}

	return &dto.SendMessageResponse{Success: true, ProviderMessageID: providerID}, nil
}

// LogSentMessage writes one delivery log row on behalf of the authenticated account
func (f *DispatchFlowImpl) LogSentMessage(ctx context.Context, accountID uint, req *dto.LogSentMessageRequest) (*dto.SentMessageDTO, error) {
	if req.FromUserID != accountID {
		return nil, NewBusinessError("LOG_MESSAGE_FAILED", "Failed to log sent message", ErrSenderMismatch)
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		return nil, NewBusinessError("LOG_MESSAGE_VALIDATION_FAILED", "Log validation failed", ErrInvalidChannel)
	}
	if !utils.IsValidPhone(req.ToPhone) {
		return nil, NewBusinessError("LOG_MESSAGE_VALIDATION_FAILED", "Log validation failed", ErrInvalidPhone)
	}
	eventUUID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, NewBusinessError("LOG_MESSAGE_FAILED", "Failed to log sent message", ErrEventNotFound)
	}

	event, err := loadOwnedEvent(ctx, f.eventRepo, accountID, eventUUID)
	if err != nil {
		return nil, NewBusinessError("LOG_MESSAGE_FAILED", "Failed to log sent message", err)
	}
	recipient, err := f.recipientRepo.ByOwnerAndID(ctx, accountID, req.GuestID)
	if err != nil {
		return nil, NewBusinessError("LOG_MESSAGE_FAILED", "Failed to log sent message", err)
	}
	if recipient == nil {
		return nil, NewBusinessError("LOG_MESSAGE_FAILED", "Failed to log sent message", ErrRecipientNotFound)
	}

	status := models.MessageStatusSent
	if s := utils.TrimmedPtr(req.Status); s != nil {
		status = models.MessageStatus(strings.ToLower(*s))
	}

	row := &models.SentMessage{
		EventID:           event.ID,
		RecipientID:       recipient.ID,
		FromAccountID:     accountID,
		ToPhone:           utils.NormalizePhone(req.ToPhone),
		MessageBody:       req.MessageBody,
		Channel:           channel,
		ProviderMessageID: utils.TrimmedPtr(req.ProviderMessageID),
		Status:            status,
		SentAt:            utils.UTCNow(),
	}
	if err := f.sentMessageRepo.Save(ctx, row); err != nil {
		return nil, NewBusinessError("LOG_MESSAGE_FAILED", "Failed to log sent message", err)
	}

	out := ToSentMessageDTO(*row)
	return &out, nil
}

func (f *DispatchFlowImpl) publish(ctx context.Context, routingKey string, payload any) {
	if err := f.publisher.Publish(ctx, routingKey, payload); err != nil {
		f.logger.Warn("Event publish failed", "routing_key", routingKey, "error", err)
	}
}

// newOutbound picks the sender identity per channel unless from is given
func newOutbound(cfg config.MessagingConfig, channel models.Channel, to, from, body string) services.OutboundMessage {
	if from == "" {
		if channel == models.ChannelWhatsApp {
			from = cfg.WhatsAppFrom
		} else {
			from = cfg.SMSFrom
		}
	}
	return services.OutboundMessage{
		To:                to,
		From:              from,
		Body:              body,
		Channel:           channel,
		StatusCallbackURL: cfg.StatusCallbackURL(),
	}
}

func summarize(results []dto.DispatchResult) dto.DispatchSummary {
	s := dto.DispatchSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case DispatchStatusSent:
			s.Sent++
		case DispatchStatusSkipped:
			s.Skipped++
		case DispatchStatusFailed:
			s.Failed++
		}
	}
	return s
}
