package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.account(t, "")
	ana := h.recipient(t, owner.ID, "Ana", "+15551234567", false)
	ben := h.recipient(t, owner.ID, "Ben", "+15551234568", false)
	event := h.event(t, owner.ID, "Party!", ana, ben)

	sentAt := time.Now().UTC().Add(-time.Minute)
	anaRow, err := h.fixtures.CreateTestSentMessage(event, ana, "SMana", sentAt)
	require.NoError(t, err)
	benRow, err := h.fixtures.CreateTestSentMessage(event, ben, "SMben", sentAt)
	require.NoError(t, err)

	t.Run("DeliveredRoundTrip", func(t *testing.T) {
		res, err := h.reconcileFlow.Reconcile(ctx, "SMana", "delivered", "", "")
		require.NoError(t, err)
		assert.True(t, res.Matched)
		assert.True(t, res.Applied)
		assert.Equal(t, anaRow.ID, res.SentMessageID)

		row, err := h.sentMessages.ByID(ctx, anaRow.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusDelivered, row.Status)
		require.NotNil(t, row.DeliveryStatusUpdatedAt)
		assert.Nil(t, row.ErrorCode)

		events := h.publisher.Events(services.RoutingKeyDeliveryStatusChanged)
		assert.Len(t, events, 1)
	})

	t.Run("UnknownIDLeavesRowsUnchanged", func(t *testing.T) {
		res, err := h.reconcileFlow.Reconcile(ctx, "SMunknown", "delivered", "", "")
		require.NoError(t, err)
		assert.False(t, res.Matched)
		assert.False(t, res.Applied)

		row, err := h.sentMessages.ByID(ctx, benRow.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusSent, row.Status)
		assert.Nil(t, row.DeliveryStatusUpdatedAt)
	})

	t.Run("RegressionFromTerminalIsIgnored", func(t *testing.T) {
		res, err := h.reconcileFlow.Reconcile(ctx, "SMana", "sent", "", "")
		require.NoError(t, err)
		assert.True(t, res.Matched)
		assert.False(t, res.Applied)

		row, err := h.sentMessages.ByID(ctx, anaRow.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusDelivered, row.Status)
	})

	t.Run("FailureRecordsErrorFields", func(t *testing.T) {
		res, err := h.reconcileFlow.Reconcile(ctx, "SMben", "Undelivered", "30003", "Unreachable destination handset")
		require.NoError(t, err)
		assert.True(t, res.Applied)

		row, err := h.sentMessages.ByID(ctx, benRow.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusUndelivered, row.Status)
		require.NotNil(t, row.ErrorCode)
		assert.Equal(t, "30003", *row.ErrorCode)
		require.NotNil(t, row.ErrorMessage)
		assert.Equal(t, "Unreachable destination handset", *row.ErrorMessage)
	})

	t.Run("TerminalToTerminalLastWriteWins", func(t *testing.T) {
		res, err := h.reconcileFlow.Reconcile(ctx, "SMben", "delivered", "", "")
		require.NoError(t, err)
		assert.True(t, res.Applied)

		row, err := h.sentMessages.ByID(ctx, benRow.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusDelivered, row.Status)
		require.NotNil(t, row.ErrorCode, "absent error fields keep earlier values")
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, err := h.reconcileFlow.Reconcile(ctx, "", "delivered", "", "")
		assert.True(t, businessflow.IsWebhookValidation(err))

		_, err = h.reconcileFlow.Reconcile(ctx, "SMana", "  ", "", "")
		assert.True(t, businessflow.IsWebhookValidation(err))
	})
}

// interleavingSentMessages runs beforeWrite after a row has been read and before the status write
type interleavingSentMessages struct {
	repository.SentMessageRepository
	beforeWrite func()
}

func (r *interleavingSentMessages) UpdateDeliveryStatus(ctx context.Context, providerMessageID string, update models.DeliveryStatusUpdate) (int64, error) {
	if r.beforeWrite != nil {
		hook := r.beforeWrite
		r.beforeWrite = nil
		hook()
	}
	return r.SentMessageRepository.UpdateDeliveryStatus(ctx, providerMessageID, update)
}

func TestReconcile_OverlappingCallbacksNeverRegress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.account(t, "")
	ana := h.recipient(t, owner.ID, "Ana", "+15551234567", false)
	event := h.event(t, owner.ID, "Party!", ana)
	row, err := h.fixtures.CreateTestSentMessage(event, ana, "SMlate", time.Now().UTC())
	require.NoError(t, err)

	// a late "sent" callback reads the row as "sent", then "delivered" lands before its write
	repo := &interleavingSentMessages{SentMessageRepository: h.sentMessages}
	lateFlow := businessflow.NewReconcileFlow(repo, h.publisher, discardLogger())
	repo.beforeWrite = func() {
		res, err := h.reconcileFlow.Reconcile(ctx, "SMlate", "delivered", "", "")
		require.NoError(t, err)
		require.True(t, res.Applied)
	}

	res, err := lateFlow.Reconcile(ctx, "SMlate", "sent", "", "")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.Applied)
	assert.Equal(t, models.MessageStatusSent, res.Previous)

	stored, err := h.sentMessages.ByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusDelivered, stored.Status)
	assert.Len(t, h.publisher.Events(services.RoutingKeyDeliveryStatusChanged), 1)
}

func TestReconcile_DuplicateProviderIDUpdatesEveryRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.account(t, "")
	ana := h.recipient(t, owner.ID, "Ana", "+15551234567", false)
	event := h.event(t, owner.ID, "Party!", ana)
	first, err := h.fixtures.CreateTestSentMessage(event, ana, "SMdup", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	second, err := h.fixtures.CreateTestSentMessage(event, ana, "SMdup", time.Now().UTC())
	require.NoError(t, err)

	res, err := h.reconcileFlow.Reconcile(ctx, "SMdup", "delivered", "", "")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(2), res.Updated)
	assert.Equal(t, second.ID, res.SentMessageID)

	for _, id := range []uint{first.ID, second.ID} {
		stored, err := h.sentMessages.ByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.MessageStatusDelivered, stored.Status)
	}
}
