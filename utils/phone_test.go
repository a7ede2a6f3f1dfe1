package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+15551234567", "+15551234567"},
		{"whatsapp:+15551234567", "+15551234567"},
		{"WhatsApp: +1 (555) 123-4567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"", ""},
		{"whatsapp:", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), tc.in)
	}
}

func TestStripChannelScheme(t *testing.T) {
	assert.Equal(t, "+15551234567", StripChannelScheme("whatsapp:+15551234567"))
	assert.Equal(t, "+15551234567", StripChannelScheme("  +15551234567 "))
	assert.True(t, HasWhatsAppScheme("WHATSAPP:+1"))
	assert.False(t, HasWhatsAppScheme("+15551234567"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+15551234567"))
	assert.True(t, IsValidPhone("whatsapp:+447911123456"))
	assert.False(t, IsValidPhone("12345"))
	assert.False(t, IsValidPhone("+1234567890123456"))
	assert.False(t, IsValidPhone("not a phone"))
}
