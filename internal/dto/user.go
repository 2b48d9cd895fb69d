package dto

import (
	"time"

	"users/internal/domain"
)

type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber int64     `json:"phone_number"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID.String(),
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// SessionUserResponse is returned by the authenticated user lookup together
// with the rotated pair and its expiries.
type SessionUserResponse struct {
	User *UserResponse `json:"user"`
	TokenResponse
}

func NewSessionUserResponse(u *domain.User, p domain.TokenPair) *SessionUserResponse {
	return &SessionUserResponse{User: NewUserResponse(u), TokenResponse: NewTokenResponse(p)}
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}
