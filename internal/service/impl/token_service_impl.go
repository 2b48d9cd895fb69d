package impl

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"users/internal/domain"
	"users/internal/jwtsigner"
	"users/internal/observability/metrics"
	"users/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ====== Config ======

type TokenConfig struct {
	Issuer           string
	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	ActivationTTL    time.Duration // 5m
	AccessTTL        time.Duration // 5m
	RefreshTTL       time.Duration // 7 days
	Now              func() time.Time
}

type TokenKind string

const (
	KindActivation TokenKind = "activation"
	KindAccess     TokenKind = "access"
	KindRefresh    TokenKind = "refresh"
)

// ====== Claims ======

type SessionClaims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type ActivationClaims struct {
	Kind           TokenKind          `json:"kind"`
	User           domain.PendingUser `json:"user"`
	ActivationCode string             `json:"activationCode"`
	jwt.RegisteredClaims
}

// ====== Service ======

type TokenServiceImpl struct {
	signers map[TokenKind]*jwtsigner.Signer
	ttls    map[TokenKind]time.Duration
}

func NewTokenServiceHS256(cfg TokenConfig) (*TokenServiceImpl, error) {
	secrets := map[TokenKind]string{
		KindActivation: cfg.ActivationSecret,
		KindAccess:     cfg.AccessSecret,
		KindRefresh:    cfg.RefreshSecret,
	}
	t := &TokenServiceImpl{
		signers: make(map[TokenKind]*jwtsigner.Signer, len(secrets)),
		ttls: map[TokenKind]time.Duration{
			KindActivation: orDefault(cfg.ActivationTTL, 5*time.Minute),
			KindAccess:     orDefault(cfg.AccessTTL, 5*time.Minute),
			KindRefresh:    orDefault(cfg.RefreshTTL, 7*24*time.Hour),
		},
	}
	for kind, secret := range secrets {
		s, err := jwtsigner.New(secret, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("%s token: %w", kind, err)
		}
		if cfg.Now != nil {
			s = s.WithClock(cfg.Now)
		}
		t.signers[kind] = s
	}
	return t, nil
}

// IssueActivation signs the pending user together with a fresh 4-digit code.
func (t *TokenServiceImpl) IssueActivation(ctx context.Context, pending domain.PendingUser) (string, string, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues(string(KindActivation), result).Inc()
	}()

	code, err := activationCode()
	if err != nil {
		result = "failure"
		return "", "", err
	}

	s := t.signers[KindActivation]
	token, err := s.Sign(ActivationClaims{
		Kind:             KindActivation,
		User:             pending,
		ActivationCode:   code,
		RegisteredClaims: s.Registered(pending.Email, t.ttls[KindActivation]),
	})
	if err != nil {
		result = "failure"
		return "", "", fmt.Errorf("sign activation token: %w", err)
	}
	return token, code, nil
}

func (t *TokenServiceImpl) VerifyActivation(ctx context.Context, token string) (*domain.ActivationPayload, error) {
	var claims ActivationClaims
	if err := t.signers[KindActivation].Verify(token, &claims); err != nil {
		return nil, invalidToken(err)
	}
	if claims.Kind != KindActivation {
		return nil, invalidToken(errWrongKind)
	}
	return &domain.ActivationPayload{User: claims.User, Code: claims.ActivationCode}, nil
}

// IssuePair signs a new access and refresh token for the same subject.
func (t *TokenServiceImpl) IssuePair(ctx context.Context, userID domain.UserID) (domain.TokenPair, error) {
	return t.issuePair(ctx, "pair", userID, domain.TokenPair{})
}

// RotatePair is IssuePair for the guard. exp only has second precision, so a
// rotation in the same second as the previous issue would otherwise repeat
// the old expiry; each new expiry is pushed past prev's.
func (t *TokenServiceImpl) RotatePair(ctx context.Context, userID domain.UserID, prev domain.TokenPair) (domain.TokenPair, error) {
	return t.issuePair(ctx, "rotation", userID, prev)
}

func (t *TokenServiceImpl) VerifyAccess(ctx context.Context, token string) (domain.TokenClaims, error) {
	return t.verify(KindAccess, token)
}

func (t *TokenServiceImpl) VerifyRefresh(ctx context.Context, token string) (domain.TokenClaims, error) {
	return t.verify(KindRefresh, token)
}

// ====== Helpers ======

var errWrongKind = errors.New("unexpected token kind")

func (t *TokenServiceImpl) issuePair(ctx context.Context, flow string, userID domain.UserID, prev domain.TokenPair) (domain.TokenPair, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues(flow, result).Inc()
	}()

	access, accessExp, err := t.issue(KindAccess, userID.String(), prev.AccessExpiresAt)
	if err != nil {
		result = "failure"
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := t.issue(KindRefresh, userID.String(), prev.RefreshExpiresAt)
	if err != nil {
		result = "failure"
		return domain.TokenPair{}, err
	}

	slog.Debug("issued token pair", append(middleware.LogAttrs(ctx), "user_id", userID, "flow", flow)...)

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// issue signs a session token. When after is set, exp is moved to at least
// one second past it.
func (t *TokenServiceImpl) issue(kind TokenKind, sub string, after time.Time) (string, time.Time, error) {
	s := t.signers[kind]
	reg := s.Registered(sub, t.ttls[kind])
	if !after.IsZero() && !reg.ExpiresAt.After(after) {
		reg.ExpiresAt = jwt.NewNumericDate(after.Truncate(time.Second).Add(time.Second))
	}
	reg.ID = uuid.NewString()
	token, err := s.Sign(SessionClaims{Kind: kind, RegisteredClaims: reg})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return token, reg.ExpiresAt.Time, nil
}

func (t *TokenServiceImpl) verify(kind TokenKind, token string) (domain.TokenClaims, error) {
	var claims SessionClaims
	if err := t.signers[kind].Verify(token, &claims); err != nil {
		return domain.TokenClaims{}, invalidToken(err)
	}
	if claims.Kind != kind {
		return domain.TokenClaims{}, invalidToken(errWrongKind)
	}
	if claims.Subject == "" {
		return domain.TokenClaims{}, invalidToken(errors.New("missing subject"))
	}
	return domain.TokenClaims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func invalidToken(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidToken, cause)
}

// activationCode draws a uniformly random code in [1000, 9999].
func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("activation code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
