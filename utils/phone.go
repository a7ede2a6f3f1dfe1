package utils

import (
	"regexp"
	"strings"
)

// WhatsAppScheme prefixes provider addresses on the WhatsApp channel
const WhatsAppScheme = "whatsapp:"

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// StripChannelScheme removes a leading "whatsapp:" from a provider address
func StripChannelScheme(addr string) string {
	addr = strings.TrimSpace(addr)
	if len(addr) >= len(WhatsAppScheme) && strings.EqualFold(addr[:len(WhatsAppScheme)], WhatsAppScheme) {
		return strings.TrimSpace(addr[len(WhatsAppScheme):])
	}
	return addr
}

// HasWhatsAppScheme reports whether addr carries the WhatsApp channel prefix
func HasWhatsAppScheme(addr string) bool {
	addr = strings.TrimSpace(addr)
	return len(addr) >= len(WhatsAppScheme) && strings.EqualFold(addr[:len(WhatsAppScheme)], WhatsAppScheme)
}

// DigitsOnly drops every character that is not 0-9
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone turns a provider address or user input into "+<digits>".
// The channel scheme and any formatting characters are dropped.
func NormalizePhone(s string) string {
	digits := DigitsOnly(StripChannelScheme(s))
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// IsValidPhone reports whether s normalizes to a 10-15 digit number
func IsValidPhone(s string) bool {
	n := NormalizePhone(s)
	return n != "" && phonePattern.MatchString(n)
}
