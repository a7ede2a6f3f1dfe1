package businessflow_test

import (
	"context"
	"testing"

	"github.com/amirphl/partyline/app/dto"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventRequest(message string, phones ...string) *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		Title:           " Rooftop dinner ",
		Date:            "2026-11-07",
		StartTime:       "20:00",
		Location:        utils.ToPtr("12 Harbor St"),
		Message:         message,
		Tone:            "casual",
		RecipientPhones: phones,
	}
}

func TestEventFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.account(t, "")
	stranger := h.account(t, "")
	ana := h.recipient(t, owner.ID, "Ana", "+15551234567", false)
	ben := h.recipient(t, owner.ID, "Ben", "+15551234568", false)

	created, err := h.eventFlow.CreateEvent(ctx, owner.ID,
		newEventRequest("Hi [Name]!", "+15551234568", "+15551234567", "+15559990000"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Rooftop dinner", created.Event.Title)
	require.Len(t, created.Event.Recipients, 2)
	assert.Equal(t, ben.ID, created.Event.Recipients[0].ID)
	assert.Equal(t, ana.ID, created.Event.Recipients[1].ID)
	assert.Equal(t, []string{"+15559990000"}, created.UnmatchedPhones)

	eventUUID, err := uuid.Parse(created.Event.UUID)
	require.NoError(t, err)

	t.Run("Get", func(t *testing.T) {
		got, err := h.eventFlow.GetEvent(ctx, owner.ID, eventUUID)
		require.NoError(t, err)
		assert.Equal(t, "Hi [Name]!", got.Message)
		assert.Len(t, got.Recipients, 2)

		_, err = h.eventFlow.GetEvent(ctx, stranger.ID, eventUUID)
		assert.True(t, businessflow.IsEventAccessDenied(err))

		_, err = h.eventFlow.GetEvent(ctx, owner.ID, uuid.New())
		assert.True(t, businessflow.IsEventNotFound(err))
	})

	t.Run("UpdateReplacesRecipients", func(t *testing.T) {
		updated, err := h.eventFlow.UpdateEvent(ctx, owner.ID, eventUUID, newEventRequest("See you [Name]", "+15551234567"), nil)
		require.NoError(t, err)
		assert.Equal(t, "See you [Name]", updated.Event.Message)
		require.Len(t, updated.Event.Recipients, 1)
		assert.Equal(t, ana.ID, updated.Event.Recipients[0].ID)
		assert.Empty(t, updated.UnmatchedPhones)

		got, err := h.eventFlow.GetEvent(ctx, owner.ID, eventUUID)
		require.NoError(t, err)
		require.Len(t, got.Recipients, 1)
		assert.Equal(t, ana.ID, got.Recipients[0].ID)

		_, err = h.eventFlow.UpdateEvent(ctx, stranger.ID, eventUUID, newEventRequest("x", "+15551234567"), nil)
		assert.True(t, businessflow.IsEventAccessDenied(err))
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := h.eventFlow.CreateEvent(ctx, owner.ID, newEventRequest("  ", "+15551234567"), nil)
		assert.True(t, businessflow.IsEventMessageRequired(err))

		_, err = h.eventFlow.CreateEvent(ctx, owner.ID, newEventRequest("Hi"), nil)
		assert.True(t, businessflow.IsEventRecipientsRequired(err))
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		second, err := h.eventFlow.CreateEvent(ctx, owner.ID, newEventRequest("Brunch", "+15551234568"), nil)
		require.NoError(t, err)

		page, err := h.eventFlow.ListEvents(ctx, owner.ID, &dto.ListEventsRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, second.Event.UUID, page.Items[0].UUID)
		assert.Equal(t, uint(2), page.Pagination.TotalItems)

		none, err := h.eventFlow.ListEvents(ctx, stranger.ID, &dto.ListEventsRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, none.Items)

		_, err = h.eventFlow.ListEvents(ctx, owner.ID, &dto.ListEventsRequest{Page: 1, PageSize: 0})
		assert.True(t, businessflow.IsInvalidPageSize(err))
	})

	t.Run("Delete", func(t *testing.T) {
		err := h.eventFlow.DeleteEvent(ctx, stranger.ID, eventUUID, nil)
		assert.True(t, businessflow.IsEventAccessDenied(err))

		require.NoError(t, h.eventFlow.DeleteEvent(ctx, owner.ID, eventUUID, nil))
		_, err = h.eventFlow.GetEvent(ctx, owner.ID, eventUUID)
		assert.True(t, businessflow.IsEventNotFound(err))
	})
}
