package businessflow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/amirphl/partyline/app/services"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/amirphl/partyline/utils"
)

// ReconcileResult reports what a status callback did to the delivery log
type ReconcileResult struct {
	// Matched is false when no delivery log row carries the provider message id
	Matched bool
	// Applied is false when the update would move every matching row back to an earlier state
	Applied bool
	// Updated counts the rows changed; a provider id logged twice updates both rows
	Updated       int64
	SentMessageID uint
	Previous      models.MessageStatus
	Status        models.MessageStatus
}

// ReconcileFlow applies provider delivery status callbacks to the delivery log
type ReconcileFlow interface {
	Reconcile(ctx context.Context, providerMessageID, newStatus, errorCode, errorMessage string) (*ReconcileResult, error)
}

// ReconcileFlowImpl implements ReconcileFlow
type ReconcileFlowImpl struct {
	sentMessageRepo repository.SentMessageRepository
	publisher       services.EventPublisher
	logger          *slog.Logger
}

// NewReconcileFlow creates a new reconcile flow instance
func NewReconcileFlow(sentMessageRepo repository.SentMessageRepository, publisher services.EventPublisher, logger *slog.Logger) ReconcileFlow {
	if publisher == nil {
		publisher = services.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileFlowImpl{
		sentMessageRepo: sentMessageRepo,
		publisher:       publisher,
		logger:          logger.With("component", "reconcile"),
	}
}

// Reconcile records newStatus on the rows sent with providerMessageID.
// An unknown id is a silent no-op; the provider only needs a fast acknowledgement.
func (f *ReconcileFlowImpl) Reconcile(ctx context.Context, providerMessageID, newStatus, errorCode, errorMessage string) (*ReconcileResult, error) {
	providerMessageID = strings.TrimSpace(providerMessageID)
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	if providerMessageID == "" {
		return nil, NewBusinessError("STATUS_CALLBACK_VALIDATION_FAILED", "Status callback validation failed", ErrMessageSidRequired)
	}
	if newStatus == "" {
		return nil, NewBusinessError("STATUS_CALLBACK_VALIDATION_FAILED", "Status callback validation failed", ErrMessageStatusRequired)
	}

	status := models.MessageStatus(newStatus)
	result := &ReconcileResult{Status: status}

	row, err := f.sentMessageRepo.ByProviderMessageID(ctx, providerMessageID)
	if err != nil {
		return nil, NewBusinessError("STATUS_CALLBACK_FAILED", "Status callback failed", err)
	}
	if row == nil {
		statusCallbacksTotal.WithLabelValues("unknown").Inc()
		f.logger.Info("Status callback for unknown message", "provider_message_id", providerMessageID, "status", status)
		return result, nil
	}

	result.Matched = true
	result.SentMessageID = row.ID
	result.Previous = row.Status

	update := models.DeliveryStatusUpdate{
		Status:       status,
		ErrorCode:    utils.TrimmedPtr(&errorCode),
		ErrorMessage: utils.TrimmedPtr(&errorMessage),
		UpdatedAt:    utils.UTCNow(),
	}
	// The rank guard runs inside the UPDATE so overlapping callbacks cannot regress a row
	updated, err := f.sentMessageRepo.UpdateDeliveryStatus(ctx, providerMessageID, update)
	if err != nil {
		return nil, NewBusinessError("STATUS_CALLBACK_FAILED", "Status callback failed", err)
	}
	if updated == 0 {
		statusCallbacksTotal.WithLabelValues("ignored").Inc()
		f.logger.Info("Status regression ignored",
			"sent_message_id", row.ID,
			"provider_message_id", providerMessageID,
			"current", row.Status,
			"received", status)
		return result, nil
	}

	result.Applied = true
	result.Updated = updated
	statusCallbacksTotal.WithLabelValues("applied").Inc()

	payload := map[string]any{
		"sent_message_id":     row.ID,
		"event_id":            row.EventID,
		"recipient_id":        row.RecipientID,
		"provider_message_id": providerMessageID,
		"previous":            row.Status,
		"status":              status,
		"updated_at":          update.UpdatedAt,
	}
	if update.ErrorCode != nil {
		payload["error_code"] = *update.ErrorCode
	}
	if err := f.publisher.Publish(ctx, services.RoutingKeyDeliveryStatusChanged, payload); err != nil {
		f.logger.Warn("Event publish failed", "routing_key", services.RoutingKeyDeliveryStatusChanged, "error", err)
	}

	return result, nil
}
