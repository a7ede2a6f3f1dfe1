package dto

import "encoding/xml"

// StatusCallbackRequest is the form a messaging provider posts when a message changes state
type StatusCallbackRequest struct {
	MessageSid    string `form:"MessageSid"`
	MessageStatus string `form:"MessageStatus"`
	ErrorCode     string `form:"ErrorCode"`
	ErrorMessage  string `form:"ErrorMessage"`
}

// InboundMessageRequest is the form a messaging provider posts for a received message.
// From and To keep the provider's channel scheme, e.g. "whatsapp:+15551234567".
type InboundMessageRequest struct {
	From string `form:"From"`
	To   string `form:"To"`
	Body string `form:"Body"`
}

// TwiMLResponse is the provider auto-reply markup
type TwiMLResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}
