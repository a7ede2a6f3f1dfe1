package businessflow

import (
	"strings"

	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/utils"
)

// RenderMessage replaces every name placeholder in template with the recipient's first name.
// A template without a placeholder is returned unchanged, so group and personalized
// messages share one code path.
func RenderMessage(template string, recipient *models.Recipient) string {
	if !HasNamePlaceholder(template) {
		return template
	}
	name := utils.DefaultRecipientName
	if recipient != nil {
		if first := strings.TrimSpace(recipient.FirstName); first != "" {
			name = first
		}
	}
	return strings.ReplaceAll(template, utils.NamePlaceholder, name)
}

// HasNamePlaceholder reports whether template is personalized per recipient
func HasNamePlaceholder(template string) bool {
	return strings.Contains(template, utils.NamePlaceholder)
}
