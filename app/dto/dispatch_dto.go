package dto

import "time"

// DispatchRequest sends an event's message to some or all of its recipients.
// An empty RecipientPhones means every recipient of the event; an empty Message means the event's message.
type DispatchRequest struct {
	RecipientPhones []string `json:"recipient_phones" validate:"omitempty,dive,phone"`
	Message         string   `json:"message" validate:"max=1600" example:"Hi [Name], party at 8!"`
	Channel         string   `json:"channel" validate:"required,oneof=sms whatsapp" example:"sms"`
}

// DispatchResult is the outcome of one recipient within a dispatch
type DispatchResult struct {
	RecipientID       *uint   `json:"recipient_id,omitempty"`
	Phone             string  `json:"phone"`
	Name              string  `json:"name,omitempty"`
	Status            string  `json:"status" example:"sent"`
	Reason            string  `json:"reason,omitempty" example:"opted_out"`
	Error             string  `json:"error,omitempty"`
	ProviderMessageID *string `json:"provider_message_id,omitempty"`
	// LogError is set when the message went out but its delivery log row could not be written
	LogError string `json:"log_error,omitempty"`
}

// DispatchSummary counts results per status
type DispatchSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// DispatchResponse reports every recipient outcome of a dispatch in request order
type DispatchResponse struct {
	EventUUID string           `json:"event_uuid"`
	Channel   string           `json:"channel"`
	Results   []DispatchResult `json:"results"`
	Summary   DispatchSummary  `json:"summary"`
}

// SendMessageRequest sends one message without writing a delivery log row
type SendMessageRequest struct {
	To      string `json:"to" validate:"required,phone" example:"+15551234567"`
	Body    string `json:"body" validate:"required,max=1600" example:"See you at 8!"`
	Channel string `json:"channel" validate:"required,oneof=sms whatsapp" example:"whatsapp"`
}

// SendMessageResponse carries the provider's id for the accepted message
type SendMessageResponse struct {
	Success           bool   `json:"success" example:"true"`
	ProviderMessageID string `json:"provider_message_id" example:"SM0123456789abcdef0123456789abcdef"`
}

// LogSentMessageRequest writes one delivery log row for a message sent through /messages/send
type LogSentMessageRequest struct {
	EventID           string  `json:"event_id" validate:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	GuestID           uint    `json:"guest_id" validate:"required" example:"42"`
	ToPhone           string  `json:"to_phone" validate:"required,phone" example:"+15551234567"`
	FromUserID        uint    `json:"from_user_id" validate:"required" example:"7"`
	MessageBody       string  `json:"message_body" validate:"required" example:"Hi Ana, party at 8!"`
	Channel           string  `json:"channel" validate:"required,oneof=sms whatsapp" example:"sms"`
	ProviderMessageID *string `json:"provider_message_id,omitempty" validate:"omitempty,max=64"`
	Status            *string `json:"status,omitempty" validate:"omitempty,max=32" example:"sent"`
}

// SentMessageDTO is one delivery log row
type SentMessageDTO struct {
	ID                      uint       `json:"id"`
	EventID                 uint       `json:"event_id"`
	RecipientID             uint       `json:"recipient_id"`
	ToPhone                 string     `json:"to_phone"`
	MessageBody             string     `json:"message_body"`
	Channel                 string     `json:"channel"`
	ProviderMessageID       *string    `json:"provider_message_id,omitempty"`
	Status                  string     `json:"status"`
	ErrorCode               *string    `json:"error_code,omitempty"`
	ErrorMessage            *string    `json:"error_message,omitempty"`
	SentAt                  time.Time  `json:"sent_at"`
	DeliveryStatusUpdatedAt *time.Time `json:"delivery_status_updated_at,omitempty"`
}

// ListSentMessagesRequest filters the caller's delivery log
type ListSentMessagesRequest struct {
	EventUUID *string `json:"event_uuid,omitempty"`
	Status    *string `json:"status,omitempty"`
	Channel   *string `json:"channel,omitempty" validate:"omitempty,oneof=sms whatsapp"`
	Page      uint    `json:"page" validate:"min=1"`
	PageSize  uint    `json:"page_size" validate:"min=1,max=100"`
}

// ListSentMessagesResponse is one page of the delivery log, newest first
type ListSentMessagesResponse struct {
	Items      []SentMessageDTO `json:"items"`
	Pagination PaginationInfo   `json:"pagination"`
}

// ExportSentMessagesResponse describes a generated spreadsheet
type ExportSentMessagesResponse struct {
	FileName string
	Content  []byte
	Rows     int
	// ArchiveKey is the object key when the export was also archived
	ArchiveKey string
}
