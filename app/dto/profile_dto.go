package dto

import "time"

// AccountDTO is the public view of an account
type AccountDTO struct {
	ID        uint      `json:"id"`
	UUID      string    `json:"uuid"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Birthday  *string   `json:"birthday,omitempty"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateProfileRequest replaces the editable profile fields
type UpdateProfileRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=255" example:"Hana"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=255" example:"Mori"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone" example:"+15551234567"`
	Birthday  *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02" example:"1990-04-12"`
}
