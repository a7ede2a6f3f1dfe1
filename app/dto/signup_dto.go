// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the signup form data
type SignupRequest struct {
	Email           string  `json:"email" validate:"required,email,max=255" example:"host@example.com"`
	Password        string  `json:"password" validate:"required,min=8,max=100,password_strength" example:"SecurePass123!"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password" example:"SecurePass123!"`
	FirstName       string  `json:"first_name" validate:"required,max=255" example:"Hana"`
	LastName        *string `json:"last_name,omitempty" validate:"omitempty,max=255" example:"Mori"`
	// Phone is where replies to this account's messages get forwarded
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone" example:"+15551234567"`
}
