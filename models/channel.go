package models

import (
	"fmt"
	"strings"

	"github.com/amirphl/partyline/utils"
)

// Channel is the messaging transport variant a message travels on
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Valid reports whether c is a known channel
func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelWhatsApp
}

func (c Channel) String() string { return string(c) }

// Address formats a phone number as a provider address on this channel
func (c Channel) Address(phone string) string {
	normalized := utils.NormalizePhone(phone)
	if c == ChannelWhatsApp {
		return utils.WhatsAppScheme + normalized
	}
	return normalized
}

// ParseChannel parses a user supplied channel name
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown channel %q", s)
	}
	return c, nil
}

// ChannelFromAddress derives the channel of an inbound provider address.
// Only provider traffic is classified this way; outbound sends always carry an explicit Channel.
func ChannelFromAddress(addr string) Channel {
	if utils.HasWhatsAppScheme(addr) {
		return ChannelWhatsApp
	}
	return ChannelSMS
}
