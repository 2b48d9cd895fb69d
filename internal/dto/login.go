package dto

import (
	"time"

	"users/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Filled in by the transport for audit logging.
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type ErrorBody struct {
	Message string `json:"message"`
}

// LoginResponse carries either a user with a fresh token pair or an error;
// absent fields are encoded as null.
type LoginResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  *string       `json:"accessToken"`
	RefreshToken *string       `json:"refreshToken"`
	Error        *ErrorBody    `json:"error,omitempty"`

	AccessExpiresAt  *time.Time `json:"accessExpiresAt,omitempty"`
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty"`
}

func NewLoginResponse(u *domain.User, p domain.TokenPair) *LoginResponse {
	t := NewTokenResponse(p)
	return &LoginResponse{
		User:             NewUserResponse(u),
		AccessToken:      &t.AccessToken,
		RefreshToken:     &t.RefreshToken,
		AccessExpiresAt:  &t.AccessExpiresAt,
		RefreshExpiresAt: &t.RefreshExpiresAt,
	}
}

type LogoutResponse struct {
	Message string `json:"message"`
}
