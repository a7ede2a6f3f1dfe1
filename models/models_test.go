package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageStatusTransitions(t *testing.T) {
	t.Run("ForwardProgression", func(t *testing.T) {
		assert.True(t, MessageStatusQueued.CanTransitionTo(MessageStatusSent))
		assert.True(t, MessageStatusSent.CanTransitionTo(MessageStatusDelivered))
		assert.True(t, MessageStatusDelivered.CanTransitionTo(MessageStatusRead))
		assert.True(t, MessageStatusSent.CanTransitionTo(MessageStatusSent))
	})

	t.Run("NoRegressionFromTerminal", func(t *testing.T) {
		assert.False(t, MessageStatusDelivered.CanTransitionTo(MessageStatusSent))
		assert.False(t, MessageStatusDelivered.CanTransitionTo(MessageStatusQueued))
		assert.False(t, MessageStatusSent.CanTransitionTo(MessageStatusSending))
	})

	t.Run("TerminalLastWriteWins", func(t *testing.T) {
		assert.True(t, MessageStatusDelivered.CanTransitionTo(MessageStatusFailed))
		assert.True(t, MessageStatusUndelivered.CanTransitionTo(MessageStatusDelivered))
	})

	t.Run("IsTerminal", func(t *testing.T) {
		assert.True(t, MessageStatusRead.IsTerminal())
		assert.True(t, MessageStatusFailed.IsTerminal())
		assert.False(t, MessageStatusSent.IsTerminal())
		assert.False(t, MessageStatusAccepted.IsTerminal())
	})

	t.Run("ReplaceableBy", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]MessageStatus{MessageStatusAccepted, MessageStatusQueued, MessageStatusSending, MessageStatusSent},
			MessageStatusSent.ReplaceableBy())
		assert.ElementsMatch(t,
			[]MessageStatus{MessageStatusAccepted, MessageStatusQueued, MessageStatusSending},
			MessageStatusQueued.ReplaceableBy())
		assert.Nil(t, MessageStatusDelivered.ReplaceableBy())
	})
}

func TestChannel(t *testing.T) {
	c, err := ParseChannel(" WhatsApp ")
	require.NoError(t, err)
	assert.Equal(t, ChannelWhatsApp, c)

	_, err = ParseChannel("pigeon")
	assert.Error(t, err)

	assert.Equal(t, "whatsapp:+15551234567", ChannelWhatsApp.Address("+1 555 123 4567"))
	assert.Equal(t, "+15551234567", ChannelSMS.Address("whatsapp:+15551234567"))

	assert.Equal(t, ChannelWhatsApp, ChannelFromAddress("whatsapp:+15551234567"))
	assert.Equal(t, ChannelSMS, ChannelFromAddress("+15551234567"))
}

func TestDisplayNames(t *testing.T) {
	last := "Lovelace"
	a := &Account{FirstName: "Ada", LastName: &last}
	assert.Equal(t, "Ada Lovelace", a.DisplayName())
	assert.False(t, a.HasPhone())

	r := &Recipient{FirstName: "Ana"}
	assert.Equal(t, "Ana", r.FullName())
}
