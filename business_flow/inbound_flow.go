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
	"gorm.io/gorm"
)

// InboundOutcomeKind says how an inbound message was routed
type InboundOutcomeKind string

const (
	InboundOptedOut  InboundOutcomeKind = "opted_out"
	InboundOptedIn   InboundOutcomeKind = "opted_in"
	InboundForwarded InboundOutcomeKind = "forwarded"
	InboundFallback  InboundOutcomeKind = "fallback"
	InboundNotFound  InboundOutcomeKind = "not_found"
)

// Auto-replies sent back to the replier
const (
	OptOutReply = "You have been opted out and will not receive further messages."
	OptInReply  = "You have been opted back in and will receive messages again."
)

// InboundOutcome is the routing decision for one inbound message
type InboundOutcome struct {
	Kind InboundOutcomeKind
	// Reply is the auto-reply text for opt changes and the fallback echo
	Reply string
	// ForwardedTo is the sending account's provider address when the reply was forwarded
	ForwardedTo       string
	ProviderMessageID string
	// RecipientsUpdated counts recipients whose opt-out flag was written
	RecipientsUpdated int64
}

// InboundFlow routes messages received from recipients
type InboundFlow interface {
	HandleInbound(ctx context.Context, req *dto.InboundMessageRequest) (*InboundOutcome, error)
}

// InboundFlowImpl implements InboundFlow
type InboundFlowImpl struct {
	accountRepo     repository.AccountRepository
	recipientRepo   repository.RecipientRepository
	sentMessageRepo repository.SentMessageRepository
	optEventRepo    repository.OptEventRepository
	transport       services.MessageTransport
	publisher       services.EventPublisher
	messaging       config.MessagingConfig
	db              *gorm.DB
	logger          *slog.Logger
}

// NewInboundFlow creates a new inbound flow instance
func NewInboundFlow(
	accountRepo repository.AccountRepository,
	recipientRepo repository.RecipientRepository,
	sentMessageRepo repository.SentMessageRepository,
	optEventRepo repository.OptEventRepository,
	transport services.MessageTransport,
	publisher services.EventPublisher,
	messaging config.MessagingConfig,
	db *gorm.DB,
	logger *slog.Logger,
) InboundFlow {
	if publisher == nil {
		publisher = services.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if messaging.WhatsAppFrom == "" {
		messaging.WhatsAppFrom = utils.DefaultWhatsAppSender
	}
	return &InboundFlowImpl{
		accountRepo:     accountRepo,
		recipientRepo:   recipientRepo,
		sentMessageRepo: sentMessageRepo,
		optEventRepo:    optEventRepo,
		transport:       transport,
		publisher:       publisher,
		messaging:       messaging,
		db:              db,
		logger:          logger.With("component", "inbound"),
	}
}

// HandleInbound applies STOP/START keywords or forwards the reply to whoever last messaged the sender.
// Forwarding problems never surface as errors; the replier gets the echo fallback instead.
func (f *InboundFlowImpl) HandleInbound(ctx context.Context, req *dto.InboundMessageRequest) (*InboundOutcome, error) {
	from := strings.TrimSpace(req.From)
	if from == "" {
		return nil, NewBusinessError("INBOUND_VALIDATION_FAILED", "Inbound message validation failed", ErrInboundFromRequired)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, NewBusinessError("INBOUND_VALIDATION_FAILED", "Inbound message validation failed", ErrInboundBodyRequired)
	}

	phone := utils.NormalizePhone(from)
	channel := models.ChannelFromAddress(from)

	switch strings.ToLower(strings.TrimSpace(req.Body)) {
	case "stop":
		return f.setOptOut(ctx, phone, true)
	case "start", "unstop":
		return f.setOptOut(ctx, phone, false)
	}

	latest, err := f.sentMessageRepo.LatestByToPhone(ctx, phone)
	if err != nil {
		return nil, NewBusinessError("INBOUND_FAILED", "Inbound message handling failed", err)
	}
	if latest == nil {
		inboundMessagesTotal.WithLabelValues(string(InboundNotFound)).Inc()
		f.logger.Info("Reply without prior message", "phone", phone)
		return &InboundOutcome{Kind: InboundNotFound}, nil
	}

	fallback := &InboundOutcome{Kind: InboundFallback, Reply: "You said: " + req.Body}

	account, err := f.accountRepo.ByID(ctx, latest.FromAccountID)
	if err != nil {
		f.logger.Warn("Sender account lookup failed", "account_id", latest.FromAccountID, "error", err)
		inboundMessagesTotal.WithLabelValues(string(InboundFallback)).Inc()
		return fallback, nil
	}
	if account == nil || !account.HasPhone() {
		f.logger.Info("Sender account has no phone, echoing reply", "account_id", latest.FromAccountID)
		inboundMessagesTotal.WithLabelValues(string(InboundFallback)).Inc()
		return fallback, nil
	}

	sender := ""
	if channel == models.ChannelSMS {
		sender = strings.TrimSpace(req.To)
	}
	msg := newOutbound(f.messaging, channel, channel.Address(*account.Phone), sender, fmt.Sprintf("Reply from %s: %s", from, req.Body))
	msg.StatusCallbackURL = ""

	providerID, err := f.transport.Send(ctx, msg)
	if err != nil {
		f.logger.Warn("Reply forward failed",
			"account_id", account.ID,
			"sent_message_id", latest.ID,
			"channel", channel,
			"error", err)
		inboundMessagesTotal.WithLabelValues(string(InboundFallback)).Inc()
		return fallback, nil
	}

	inboundMessagesTotal.WithLabelValues(string(InboundForwarded)).Inc()
	if err := f.publisher.Publish(ctx, services.RoutingKeyReplyForwarded, map[string]any{
		"sent_message_id":     latest.ID,
		"event_id":            latest.EventID,
		"account_id":          account.ID,
		"from_phone":          phone,
		"channel":             channel,
		"provider_message_id": providerID,
	}); err != nil {
		f.logger.Warn("Event publish failed", "routing_key", services.RoutingKeyReplyForwarded, "error", err)
	}

	return &InboundOutcome{
		Kind:              InboundForwarded,
		ForwardedTo:       msg.To,
		ProviderMessageID: providerID,
	}, nil
}

// setOptOut flips opted_out on every recipient with phone and appends opt events
func (f *InboundFlowImpl) setOptOut(ctx context.Context, phone string, optedOut bool) (*InboundOutcome, error) {
	outcome := &InboundOutcome{Kind: InboundOptedIn, Reply: OptInReply}
	kind := models.OptEventOptIn
	if optedOut {
		outcome = &InboundOutcome{Kind: InboundOptedOut, Reply: OptOutReply}
		kind = models.OptEventOptOut
	}

	err := repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		recipients, err := f.recipientRepo.ByPhone(ctx, phone)
		if err != nil {
			return err
		}
		updated, err := f.recipientRepo.SetOptedOutByPhone(ctx, phone, optedOut)
		if err != nil {
			return err
		}
		outcome.RecipientsUpdated = updated

		events := make([]*models.OptEvent, 0, len(recipients)+1)
		for _, r := range recipients {
			events = append(events, &models.OptEvent{RecipientID: utils.ToPtr(r.ID), Phone: phone, Kind: kind})
		}
		if len(events) == 0 {
			events = append(events, &models.OptEvent{Phone: phone, Kind: kind})
		}
		return f.optEventRepo.SaveBatch(ctx, events)
	})
	if err != nil {
		return nil, NewBusinessError("OPT_CHANGE_FAILED", "Failed to record opt change", err)
	}

	inboundMessagesTotal.WithLabelValues(string(outcome.Kind)).Inc()
	f.logger.Info("Opt change recorded", "phone", phone, "kind", kind, "recipients", outcome.RecipientsUpdated)

	if err := f.publisher.Publish(ctx, services.RoutingKeyRecipientOptChanged, map[string]any{
		"phone":      phone,
		"kind":       kind,
		"recipients": outcome.RecipientsUpdated,
	}); err != nil {
		f.logger.Warn("Event publish failed", "routing_key", services.RoutingKeyRecipientOptChanged, "error", err)
	}

	return outcome, nil
}
