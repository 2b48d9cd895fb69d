package service

import (
	"context"

	"users/internal/domain"
	"users/internal/dto"
)

type UserService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Activate(ctx context.Context, req dto.ActivationRequest) (*domain.User, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	LoggedInUser(ctx context.Context, sess *domain.Session) (*dto.SessionUserResponse, error)
	Logout(ctx context.Context, sess *domain.Session) (*dto.LogoutResponse, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Guard authenticates a request from its access and refresh tokens and
// rotates both on success.
type Guard interface {
	Authenticate(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error)
}
