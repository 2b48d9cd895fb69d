package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"users/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ---- clock ----

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ---- store ----

type memStore struct {
	mu      sync.Mutex
	users   []*domain.User
	lookups int
	getErr  error
}

func (m *memStore) Users() userStore { return m }

func (m *memStore) Create(ctx context.Context, usr *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == usr.Email {
			return domain.ErrDuplicateEmail
		}
		if u.PhoneNumber == usr.PhoneNumber {
			return domain.ErrDuplicatePhone
		}
	}
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	usr.CreatedAt, usr.UpdatedAt = now, now
	cp := *usr
	m.users = append(m.users, &cp)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == domain.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) ExistsByPhone(ctx context.Context, phone int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, u := range m.users {
		if u.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) List(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// ---- mailer ----

type captureMailer struct {
	mu   sync.Mutex
	sent []domain.MailMessage
	err  error
}

func (c *captureMailer) SendMail(ctx context.Context, msg domain.MailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

// ---- wiring ----

type fixture struct {
	clock  *fakeClock
	store  *memStore
	mailer *captureMailer
	tokens *TokenServiceImpl
	users  *UserServiceImpl
	guard  *GuardImpl
}

func newTokenService(t *testing.T, clock *fakeClock) *TokenServiceImpl {
	t.Helper()
	ts, err := NewTokenServiceHS256(TokenConfig{
		Issuer:           "users-test",
		ActivationSecret: "activation-secret",
		AccessSecret:     "access-secret",
		RefreshSecret:    "refresh-secret",
		Now:              clock.Now,
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return ts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:  newFakeClock(),
		store:  &memStore{},
		mailer: &captureMailer{},
	}
	f.tokens = newTokenService(t, f.clock)
	f.users = &UserServiceImpl{
		Store:           f.store,
		PasswordService: NewPasswordServiceBcrypt(bcrypt.MinCost),
		TService:        f.tokens,
		Mailer:          f.mailer,
	}
	f.guard = &GuardImpl{Store: f.store, TService: f.tokens}
	return f
}

// seedUser stores an active user with the given password.
func (f *fixture) seedUser(t *testing.T, email string, phone int64, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{Name: "Seed", Email: email, Password: string(hash), PhoneNumber: phone}
	if err := f.store.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}
