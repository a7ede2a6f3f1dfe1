package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInbound_NoPriorMessage(t *testing.T) {
	h := newHarness(t)

	out, err := h.inboundFlow.HandleInbound(context.Background(), &dto.InboundMessageRequest{From: "+15551234567", To: testSMSSender, Body: "Hello!"})
	require.NoError(t, err)
	assert.Equal(t, businessflow.InboundNotFound, out.Kind)
	assert.Empty(t, h.transport.Sent(), "no forward is attempted")
}

func TestHandleInbound_SenderWithoutPhoneGetsEcho(t *testing.T) {
	h := newHarness(t)

	owner := h.account(t, "")
	ana := h.recipient(t, owner.ID, "Ana", "+15551234567", false)
	event := h.event(t, owner.ID, "Party!", ana)
	_, err := h.fixtures.CreateTestSentMessage(event, ana, "SM1", time.Now().UTC())
	require.NoError(t, err)

	out, err := h.inboundFlow.HandleInbound(context.Background(), &dto.InboundMessageRequest{From: "+15551234567", To: testSMSSender, Body: "Thanks!"})
	require.NoError(t, err)
	assert.Equal(t, businessflow.InboundFallback, out.Kind)
	assert.Equal(t, "You said: Thanks!", out.Reply)
	assert.Empty(t, h.transport.Sent())
}

func TestHandleInbound_Forwarding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	earlier := h.account(t, "+15550001000")
	latest := h.account(t, "+15550002000")
	anaForEarlier := h.recipient(t, earlier.ID, "Ana", "+15551234567", false)
	anaForLatest := h.recipient(t, latest.ID, "Ana", "+15551234567", false)
	earlierEvent := h.event(t, earlier.ID, "Brunch?", anaForEarlier)
	latestEvent := h.event(t, latest.ID, "Dinner?", anaForLatest)

	now := time.Now().UTC()
	_, err := h.fixtures.CreateTestSentMessage(earlierEvent, anaForEarlier, "SMold", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = h.fixtures.CreateTestSentMessage(latestEvent, anaForLatest, "SMnew", now)
	require.NoError(t, err)

	t.Run("SMSGoesToLatestSender", func(t *testing.T) {
		h.transport.Reset()
		out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15551234567", To: "+15550007777", Body: "Count me in"})
		require.NoError(t, err)
		assert.Equal(t, businessflow.InboundForwarded, out.Kind)
		assert.Equal(t, "+15550002000", out.ForwardedTo)
		assert.NotEmpty(t, out.ProviderMessageID)

		sent := h.transport.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "+15550002000", sent[0].Message.To)
		assert.Equal(t, "+15550007777", sent[0].Message.From, "replies leave from the number that received them")
		assert.Equal(t, "Reply from +15551234567: Count me in", sent[0].Message.Body)
		assert.Empty(t, sent[0].Message.StatusCallbackURL)
		assert.Len(t, h.publisher.Events(services.RoutingKeyReplyForwarded), 1)
	})

	t.Run("SMSWithoutToUsesConfiguredSender", func(t *testing.T) {
		h.transport.Reset()
		_, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15551234567", Body: "ok"})
		require.NoError(t, err)
		require.Len(t, h.transport.Sent(), 1)
		assert.Equal(t, testSMSSender, h.transport.Sent()[0].Message.From)
	})

	t.Run("WhatsAppStaysOnWhatsApp", func(t *testing.T) {
		h.transport.Reset()
		out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "whatsapp:+15551234567", To: utils.DefaultWhatsAppSender, Body: "See you"})
		require.NoError(t, err)
		assert.Equal(t, businessflow.InboundForwarded, out.Kind)

		sent := h.transport.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "whatsapp:+15550002000", sent[0].Message.To)
		assert.Equal(t, utils.DefaultWhatsAppSender, sent[0].Message.From)
		assert.Equal(t, models.ChannelWhatsApp, sent[0].Message.Channel)
		assert.Equal(t, "Reply from whatsapp:+15551234567: See you", sent[0].Message.Body)
	})

	t.Run("ForwardFailureFallsBackToEcho", func(t *testing.T) {
		h.transport.Reset()
		h.transport.FailFor("+15550002000")
		out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15551234567", To: testSMSSender, Body: "Thanks!"})
		require.NoError(t, err)
		assert.Equal(t, businessflow.InboundFallback, out.Kind)
		assert.Equal(t, "You said: Thanks!", out.Reply)
	})
}

func TestHandleInbound_OptKeywords(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owner := h.account(t, "")
	other := h.account(t, "")
	mine := h.recipient(t, owner.ID, "Ana", "+15551234567", false)
	theirs := h.recipient(t, other.ID, "Ana", "+15551234567", false)

	optedOut := func(t *testing.T, id uint) bool {
		t.Helper()
		r, err := h.recipients.ByID(ctx, id)
		require.NoError(t, err)
		return r.OptedOut
	}

	t.Run("StopWithCaseAndWhitespace", func(t *testing.T) {
		out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15551234567", Body: "  STOP \n"})
		require.NoError(t, err)
		assert.Equal(t, businessflow.InboundOptedOut, out.Kind)
		assert.Equal(t, businessflow.OptOutReply, out.Reply)
		assert.Equal(t, int64(2), out.RecipientsUpdated)
		assert.True(t, optedOut(t, mine.ID))
		assert.True(t, optedOut(t, theirs.ID))

		kind := models.OptEventOptOut
		n, err := h.optEvents.Count(ctx, models.OptEventFilter{Kind: &kind})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("StopNowIsNotAKeyword", func(t *testing.T) {
		_, err := h.recipients.SetOptedOutByPhone(ctx, "+15551234567", false)
		require.NoError(t, err)

		out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15551234567", Body: "stop now"})
		require.NoError(t, err)
		assert.NotEqual(t, businessflow.InboundOptedOut, out.Kind)
		assert.False(t, optedOut(t, mine.ID))
	})

	for _, keyword := range []string{"start", "UNSTOP"} {
		t.Run("OptIn_"+keyword, func(t *testing.T) {
			_, err := h.recipients.SetOptedOutByPhone(ctx, "+15551234567", true)
			require.NoError(t, err)

			out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "whatsapp:+15551234567", Body: keyword})
			require.NoError(t, err)
			assert.Equal(t, businessflow.InboundOptedIn, out.Kind)
			assert.Equal(t, businessflow.OptInReply, out.Reply)
			assert.False(t, optedOut(t, mine.ID))
			assert.False(t, optedOut(t, theirs.ID))
		})
	}

	t.Run("UnknownPhoneStillLogsOptEvent", func(t *testing.T) {
		out, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15559998888", Body: "stop"})
		require.NoError(t, err)
		assert.Equal(t, businessflow.InboundOptedOut, out.Kind)
		assert.Zero(t, out.RecipientsUpdated)

		phone := "+15559998888"
		rows, err := h.optEvents.ByFilter(ctx, models.OptEventFilter{Phone: &phone}, "id ASC", 0, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].RecipientID)
	})

	t.Run("OptChangesArePublished", func(t *testing.T) {
		assert.NotEmpty(t, h.publisher.Events(services.RoutingKeyRecipientOptChanged))
	})
}

func TestHandleInbound_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{Body: "hi"})
	assert.True(t, businessflow.IsWebhookValidation(err))

	_, err = h.inboundFlow.HandleInbound(ctx, &dto.InboundMessageRequest{From: "+15551234567"})
	assert.True(t, businessflow.IsWebhookValidation(err))
}
