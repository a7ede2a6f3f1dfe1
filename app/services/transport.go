// Package services provides external service integrations and technical concerns like messaging transports and tokens
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/partyline/models"
)

// OutboundMessage is one message handed to the provider.
// To and From are provider addresses (see models.Channel.Address).
type OutboundMessage struct {
	To                string
	From              string
	Body              string
	Channel           models.Channel
	StatusCallbackURL string
}

// MessageTransport sends a single message and returns the provider message id
type MessageTransport interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}

// TransportErrorKind classifies a failed send
type TransportErrorKind string

const (
	TransportErrorNetwork         TransportErrorKind = "network"
	TransportErrorTimeout         TransportErrorKind = "timeout"
	TransportErrorRejected        TransportErrorKind = "rejected"
	TransportErrorInvalidResponse TransportErrorKind = "invalid_response"
)

// TransportError is returned by MessageTransport implementations
type TransportError struct {
	Kind         TransportErrorKind
	StatusCode   int
	ProviderCode string
	Message      string
	Err          error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("transport %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.ProviderCode != "" {
		msg += fmt.Sprintf(" code=%s", e.ProviderCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the send exceeded its deadline
func (e *TransportError) IsTimeout() bool {
	return e.Kind == TransportErrorTimeout
}

// AsTransportError unwraps err into a *TransportError when possible
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
