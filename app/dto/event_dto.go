package dto

import "time"

// CreateEventRequest creates an event and its recipient set.
// Recipients are referenced by phone and matched against the caller's guest list.
type CreateEventRequest struct {
	Title           string   `json:"title" validate:"required,max=255" example:"Rooftop dinner"`
	Date            string   `json:"date" validate:"required,datetime=2006-01-02" example:"2026-11-07"`
	StartTime       string   `json:"start_time" validate:"required,datetime=15:04" example:"20:00"`
	EndTime         *string  `json:"end_time,omitempty" validate:"omitempty,datetime=15:04" example:"23:30"`
	Location        *string  `json:"location,omitempty" validate:"omitempty,max=1000" example:"12 Harbor St"`
	LocationLat     *float64 `json:"location_lat,omitempty" validate:"omitempty,latitude"`
	LocationLng     *float64 `json:"location_lng,omitempty" validate:"omitempty,longitude"`
	Input           string   `json:"input" validate:"max=4000" example:"dinner on the roof, bring a jacket"`
	Message         string   `json:"message" validate:"required,max=1600" example:"Hi [Name], dinner on the roof at 8!"`
	Tone            string   `json:"tone" validate:"required,max=64" example:"casual"`
	RecipientPhones []string `json:"recipient_phones" validate:"required,min=1,dive,phone"`
}

// UpdateEventRequest replaces an event's fields and recipient set
type UpdateEventRequest = CreateEventRequest

// EventDTO is the public view of an event
type EventDTO struct {
	UUID        string         `json:"uuid"`
	Title       string         `json:"title"`
	Date        string         `json:"date"`
	StartTime   string         `json:"start_time"`
	EndTime     *string        `json:"end_time,omitempty"`
	Location    *string        `json:"location,omitempty"`
	LocationLat *float64       `json:"location_lat,omitempty"`
	LocationLng *float64       `json:"location_lng,omitempty"`
	Input       string         `json:"input"`
	Message     string         `json:"message"`
	Tone        string         `json:"tone"`
	Recipients  []RecipientDTO `json:"recipients"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// EventWriteResponse is returned by create and update
type EventWriteResponse struct {
	Event EventDTO `json:"event"`
	// UnmatchedPhones lists requested phones that are not on the caller's guest list
	UnmatchedPhones []string `json:"unmatched_phones"`
}

// ListEventsRequest pages through the caller's events
type ListEventsRequest struct {
	Page     uint `json:"page" validate:"min=1"`
	PageSize uint `json:"page_size" validate:"min=1,max=100"`
}

// ListEventsResponse is one page of events, newest first
type ListEventsResponse struct {
	Items      []EventDTO     `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
