package dto

import "time"

// CreateRecipientRequest adds a contact to the caller's guest list
type CreateRecipientRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=255" example:"Ana"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=255" example:"Silva"`
	Phone     string  `json:"phone" validate:"required,phone" example:"+15551234567"`
}

// UpdateRecipientRequest changes a contact; nil fields are left as they are
type UpdateRecipientRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=255"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
	OptedOut  *bool   `json:"opted_out,omitempty"`
}

// ListRecipientsRequest filters the caller's recipients
type ListRecipientsRequest struct {
	Search   string `json:"search"`
	Page     uint   `json:"page" validate:"min=1"`
	PageSize uint   `json:"page_size" validate:"min=1,max=100"`
}

// RecipientDTO is the public view of a recipient
type RecipientDTO struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name,omitempty"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	OptedOut  bool      `json:"opted_out"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListRecipientsResponse is one page of recipients
type ListRecipientsResponse struct {
	Items      []RecipientDTO `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	CurrentPage uint `json:"current_page"`
	PageSize    uint `json:"page_size"`
	TotalItems  uint `json:"total_items"`
	TotalPages  uint `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPaginationInfo builds pagination metadata for a page of a total result set
func NewPaginationInfo(page, pageSize uint, total int64) PaginationInfo {
	totalPages := uint(0)
	if pageSize > 0 {
		totalPages = uint((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationInfo{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  uint(total),
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
