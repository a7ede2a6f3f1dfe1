// Package businessflow contains the core business logic and use cases of the service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidPhone       = errors.New("phone number is invalid")
	ErrFirstNameRequired  = errors.New("first name is required")

	// Recipient-related errors
	ErrRecipientNotFound      = errors.New("recipient not found")
	ErrRecipientPhoneExists   = errors.New("recipient with this phone already exists")
	ErrRecipientAccessDenied  = errors.New("recipient access denied")
	ErrRecipientPhoneRequired = errors.New("recipient phone is required")

	// Event-related errors
	ErrEventNotFound           = errors.New("event not found")
	ErrEventAccessDenied       = errors.New("event access denied")
	ErrEventRecipientsRequired = errors.New("at least one recipient phone is required")
	ErrEventMessageRequired    = errors.New("event message is required")

	// Messaging errors
	ErrInvalidChannel      = errors.New("channel must be sms or whatsapp")
	ErrMessageBodyRequired = errors.New("message body is required")
	ErrNoRecipients        = errors.New("no recipients to dispatch to")
	ErrTransportFailed     = errors.New("message transport failed")
	ErrSenderMismatch      = errors.New("from_user_id does not match the authenticated account")

	// Webhook errors
	ErrMessageSidRequired    = errors.New("MessageSid is required")
	ErrMessageStatusRequired = errors.New("MessageStatus is required")
	ErrInboundFromRequired   = errors.New("From is required")
	ErrInboundBodyRequired   = errors.New("Body is required")

	// Generation errors
	ErrGenerationFailed = errors.New("message generation failed")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsInvalidPhone(err error) bool {
	return errors.Is(err, ErrInvalidPhone)
}

func IsFirstNameRequired(err error) bool {
	return errors.Is(err, ErrFirstNameRequired)
}

func IsRecipientNotFound(err error) bool {
	return errors.Is(err, ErrRecipientNotFound)
}

func IsRecipientPhoneExists(err error) bool {
	return errors.Is(err, ErrRecipientPhoneExists)
}

func IsRecipientAccessDenied(err error) bool {
	return errors.Is(err, ErrRecipientAccessDenied)
}

func IsEventNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}

func IsEventAccessDenied(err error) bool {
	return errors.Is(err, ErrEventAccessDenied)
}

func IsEventRecipientsRequired(err error) bool {
	return errors.Is(err, ErrEventRecipientsRequired)
}

func IsEventMessageRequired(err error) bool {
	return errors.Is(err, ErrEventMessageRequired)
}

func IsInvalidChannel(err error) bool {
	return errors.Is(err, ErrInvalidChannel)
}

func IsMessageBodyRequired(err error) bool {
	return errors.Is(err, ErrMessageBodyRequired)
}

func IsNoRecipients(err error) bool {
	return errors.Is(err, ErrNoRecipients)
}

func IsTransportFailed(err error) bool {
	return errors.Is(err, ErrTransportFailed)
}

func IsSenderMismatch(err error) bool {
	return errors.Is(err, ErrSenderMismatch)
}

// IsWebhookValidation reports whether err is a missing provider form field
func IsWebhookValidation(err error) bool {
	return errors.Is(err, ErrMessageSidRequired) ||
		errors.Is(err, ErrMessageStatusRequired) ||
		errors.Is(err, ErrInboundFromRequired) ||
		errors.Is(err, ErrInboundBodyRequired)
}

func IsGenerationFailed(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
