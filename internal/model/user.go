package model

import (
	"strings"
	"time"
)

// Auth methods a user account can be registered with.
const (
	AuthMethodEmail  = "email"
	AuthMethodGoogle = "google"
)

// User represents a user in the database. One-time codes are stored hashed;
// OTPHash and OTPExpiry are always set and cleared together.
type User struct {
	ID              string
	Name            string
	Email           string
	DateOfBirth     *time.Time
	GoogleID        string
	Avatar          string
	IsEmailVerified bool
	AuthMethod      string
	OTPHash         string
	OTPExpiry       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPendingOTP reports whether the user has a live one-time code.
func (u *User) HasPendingOTP() bool {
	return u.OTPHash != "" && u.OTPExpiry != nil
}

// SignupRequest represents an email signup request.
type SignupRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
}

// Normalize trims surrounding whitespace so validation sees the values that
// would be stored. Padded input must not slip under a length minimum.
func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
}

// VerifyOTPRequest represents an OTP verification request.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// Normalize trims surrounding whitespace before validation.
func (r *VerifyOTPRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

// SigninRequest represents a passwordless sign-in request. Sign-in is
// two-step: it triggers an OTP email and a verify-otp call completes it.
type SigninRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Normalize trims surrounding whitespace before validation.
func (r *SigninRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// ResendOTPRequest represents a request to resend a pending OTP.
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Normalize trims surrounding whitespace before validation.
func (r *ResendOTPRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// GoogleProfile is the verified profile obtained from the OAuth provider.
type GoogleProfile struct {
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}

// UserResponse represents user data safe for API responses.
// OTP fields are never serialized.
type UserResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Avatar          string     `json:"avatar,omitempty"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	AuthMethod      string     `json:"authMethod"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// AuthResponse represents a completed authentication with a session token.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SignupResponse acknowledges a signup and the OTP dispatch.
type SignupResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// NewUserResponse converts a User to its API-safe representation.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Avatar:          u.Avatar,
		IsEmailVerified: u.IsEmailVerified,
		AuthMethod:      u.AuthMethod,
		DateOfBirth:     u.DateOfBirth,
		CreatedAt:       u.CreatedAt,
	}
}
