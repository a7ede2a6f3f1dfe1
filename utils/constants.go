package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Messaging constants
const (
	// NamePlaceholder is replaced by the recipient's first name when a message is personalized
	NamePlaceholder = "[Name]"

	// DefaultRecipientName is used when a recipient has no first name on file
	DefaultRecipientName = "friend"

	// DefaultWhatsAppSender is the provider's shared WhatsApp sandbox identity
	DefaultWhatsAppSender = "whatsapp:+14155238886"

	// DefaultSendTimeout bounds a single provider send call
	DefaultSendTimeout = 10 * time.Second

	// DeliveryLogWriteTimeout bounds the delivery log write that follows an accepted send
	DeliveryLogWriteTimeout = 5 * time.Second

	// DefaultDispatchConcurrency is the number of recipients sent to in parallel per dispatch
	DefaultDispatchConcurrency = 8

	// DefaultMessageTone is used for generated messages when no tone is given
	DefaultMessageTone = "casual"
)
