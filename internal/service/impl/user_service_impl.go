package impl

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"users/internal/domain"
	"users/internal/dto"
	"users/internal/observability/metrics"
	"users/internal/observability/middleware"
	"users/internal/service"
	"users/internal/store"

	"github.com/google/uuid"
)

const (
	ActivationTemplate = "activation-email"
	ActivationSubject  = "Activate your account"
)

type UserServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	TService        service.TokenService
	Mailer          service.EmailService
}

func NewUserServiceImpl(st *store.Store, passwordService service.PasswordService, tokenService service.TokenService, mailer service.EmailService) *UserServiceImpl {
	return &UserServiceImpl{
		Store:           gormStoreAdapter{store: st},
		PasswordService: passwordService,
		TService:        tokenService,
		Mailer:          mailer,
	}
}

type dataStore interface {
	Users() userStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone int64) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) Users() userStore { return g.store.Users() }

// Register validates the request, rejects taken email or phone numbers and
// mails an activation code. Nothing is persisted until activation.
func (a *UserServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var err error
	defer func() {
		metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	if err = r.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		return nil, err
	}

	users := a.Store.Users()
	taken, err := users.ExistsByEmail(ctx, r.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		err = domain.ErrDuplicateEmail
		return nil, err
	}
	taken, err = users.ExistsByPhone(ctx, r.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		err = domain.ErrDuplicatePhone
		return nil, err
	}

	hash, err := a.PasswordService.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	token, code, err := a.TService.IssueActivation(ctx, domain.PendingUser{
		Name:        r.Name,
		Email:       r.Email,
		Password:    hash,
		PhoneNumber: r.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	err = a.Mailer.SendMail(ctx, domain.MailMessage{
		To:       r.Email,
		Name:     r.Name,
		Subject:  ActivationSubject,
		Template: ActivationTemplate,
		Data:     map[string]any{"activationCode": code},
	})
	if err != nil {
		err = fmt.Errorf("send activation email: %w", err)
		return nil, err
	}

	slog.Info("registration pending activation", append(middleware.LogAttrs(ctx), "email", r.Email)...)

	return &dto.RegisterResponse{ActivationToken: token}, nil
}

// Activate checks the code against the token and creates the user. A
// concurrent activation for the same email or phone loses on the unique index.
func (a *UserServiceImpl) Activate(ctx context.Context, r dto.ActivationRequest) (*domain.User, error) {
	var err error
	defer func() {
		metrics.ActivationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	r.ActivationCode = strings.TrimSpace(r.ActivationCode)
	if err = r.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		return nil, err
	}

	payload, err := a.TService.VerifyActivation(ctx, r.ActivationToken)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(payload.Code), []byte(r.ActivationCode)) != 1 {
		err = domain.ErrCodeMismatch
		return nil, err
	}

	u := payload.User.ToUser()
	if err = a.Store.Users().Create(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user activated", append(middleware.LogAttrs(ctx), "user_id", u.ID)...)
	return u, nil
}

// Login never reveals whether the email or the password was wrong; both
// produce the same structured failure. Only infrastructure errors are returned.
func (a *UserServiceImpl) Login(ctx context.Context, r dto.LoginRequest) (*dto.LoginResponse, error) {
	result := "success"
	defer func() {
		metrics.LoginsTotal.WithLabelValues(result).Inc()
	}()

	logAttrs := append(middleware.LogAttrs(ctx), "ip", r.IP, "user_agent", r.UserAgent)

	if err := r.Validate(); err != nil {
		result = "invalid_credentials"
		return loginFailure(), nil
	}

	u, err := a.Store.Users().GetByEmail(ctx, normalizeEmail(r.Email))
	if errors.Is(err, domain.ErrNotFound) {
		result = "invalid_credentials"
		slog.Info("login rejected", logAttrs...)
		return loginFailure(), nil
	}
	if err != nil {
		result = "failure"
		return nil, err
	}
	if !a.PasswordService.Compare(u.Password, r.Password) {
		result = "invalid_credentials"
		slog.Info("login rejected", append(logAttrs, "user_id", u.ID)...)
		return loginFailure(), nil
	}

	pair, err := a.TService.IssuePair(ctx, u.ID)
	if err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("user logged in", append(logAttrs, "user_id", u.ID)...)
	return dto.NewLoginResponse(u, pair), nil
}

func (a *UserServiceImpl) LoggedInUser(ctx context.Context, sess *domain.Session) (*dto.SessionUserResponse, error) {
	if sess == nil || sess.User == nil {
		return nil, domain.NewUnauthorized(msgPleaseLogin, nil)
	}
	return dto.NewSessionUserResponse(sess.User, sess.Tokens), nil
}

// Logout has no server-side state to clear; tokens stay valid until they expire.
func (a *UserServiceImpl) Logout(ctx context.Context, sess *domain.Session) (*dto.LogoutResponse, error) {
	if sess == nil || sess.User == nil {
		return nil, domain.NewUnauthorized(msgPleaseLogin, nil)
	}
	slog.Info("user logged out", append(middleware.LogAttrs(ctx), "user_id", sess.User.ID)...)
	return &dto.LogoutResponse{Message: msgLoggedOut}, nil
}

func (a *UserServiceImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	return a.Store.Users().List(ctx)
}

func loginFailure() *dto.LoginResponse {
	return &dto.LoginResponse{Error: &dto.ErrorBody{Message: msgInvalidCredentials}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
