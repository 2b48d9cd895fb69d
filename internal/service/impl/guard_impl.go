package impl

import (
	"context"
	"errors"
	"log/slog"

	"users/internal/domain"
	"users/internal/observability/metrics"
	"users/internal/observability/middleware"
	"users/internal/service"
	"users/internal/store"

	"github.com/google/uuid"
)

const msgUserNotFound = "User not found"

type GuardImpl struct {
	Store    dataStore
	TService service.TokenService
}

func NewGuardImpl(st *store.Store, tokenService service.TokenService) *GuardImpl {
	return &GuardImpl{Store: gormStoreAdapter{store: st}, TService: tokenService}
}

// Authenticate verifies both tokens, resolves the user named by the refresh
// token and returns a session carrying a freshly issued pair. Every failure is
// an *domain.UnauthorizedError.
func (g *GuardImpl) Authenticate(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	result := "success"
	defer func() {
		metrics.GuardChecksTotal.WithLabelValues(result).Inc()
	}()
	logAttrs := middleware.LogAttrs(ctx)

	if accessToken == "" || refreshToken == "" {
		result = "missing"
		return nil, domain.NewUnauthorized(msgPleaseLogin, nil)
	}

	access, err := g.TService.VerifyAccess(ctx, accessToken)
	if err != nil {
		result = "invalid_access"
		slog.Debug("guard rejected access token", append(logAttrs, "error", err)...)
		return nil, domain.NewUnauthorized(msgInvalidAccessToken, err)
	}
	refresh, err := g.TService.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		result = "invalid_refresh"
		slog.Debug("guard rejected refresh token", append(logAttrs, "error", err)...)
		return nil, domain.NewUnauthorized(msgInvalidRefreshToken, err)
	}
	if access.Subject != refresh.Subject {
		result = "invalid_refresh"
		slog.Warn("guard token subjects differ", logAttrs...)
		return nil, domain.NewUnauthorized(msgInvalidRefreshToken, domain.ErrInvalidToken)
	}
	userID, err := uuid.Parse(refresh.Subject)
	if err != nil {
		result = "invalid_refresh"
		return nil, domain.NewUnauthorized(msgInvalidRefreshToken, domain.ErrInvalidToken)
	}

	user, err := g.Store.Users().GetByID(ctx, userID)
	if err != nil {
		result = "failure"
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewUnauthorized(msgUserNotFound, err)
		}
		slog.Error("guard user lookup failed", append(logAttrs, "user_id", userID, "error", err)...)
		return nil, domain.NewUnauthorized(msgAuthFailed, err)
	}

	pair, err := g.TService.RotatePair(ctx, user.ID, domain.TokenPair{
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	})
	if err != nil {
		result = "failure"
		slog.Error("guard token rotation failed", append(logAttrs, "user_id", user.ID, "error", err)...)
		return nil, domain.NewUnauthorized(msgAuthFailed, err)
	}

	return &domain.Session{User: user, Tokens: pair}, nil
}
