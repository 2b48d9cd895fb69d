package service

import (
	"context"

	"users/internal/domain"
)

type TokenService interface {
	IssueActivation(ctx context.Context, pending domain.PendingUser) (token, code string, err error)
	VerifyActivation(ctx context.Context, token string) (*domain.ActivationPayload, error)
	IssuePair(ctx context.Context, userID domain.UserID) (domain.TokenPair, error)
	// RotatePair issues a pair whose expiries are strictly later than prev's.
	RotatePair(ctx context.Context, userID domain.UserID, prev domain.TokenPair) (domain.TokenPair, error)
	VerifyAccess(ctx context.Context, token string) (domain.TokenClaims, error)
	VerifyRefresh(ctx context.Context, token string) (domain.TokenClaims, error)
}
