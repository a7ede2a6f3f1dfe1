// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for account login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"host@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// SessionDTO carries the issued token pair
type SessionDTO struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
}

// AuthResponse is returned by signup, login and refresh
type AuthResponse struct {
	Account AccountDTO `json:"account"`
	Session SessionDTO `json:"session"`
}
