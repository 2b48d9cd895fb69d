package store_test

import (
	"context"
	"testing"
	"time"

	"users/internal/domain"
	"users/internal/store"
	"users/internal/store/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string, phone int64) *domain.User {
	return &domain.User{
		Name:        "Alice",
		Email:       email,
		Password:    "$2a$04$hash",
		PhoneNumber: phone,
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	u := newUser("alice@example.com", 5551234)
	require.NoError(t, st.Users().Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, int64(5551234), got.PhoneNumber)
	assert.Equal(t, u.Password, got.Password)

	byEmail, err := st.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestCreateDuplicateEmail(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	require.NoError(t, st.Users().Create(ctx, newUser("alice@example.com", 1)))
	err := st.Users().Create(ctx, newUser("alice@example.com", 2))
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestCreateDuplicatePhone(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	require.NoError(t, st.Users().Create(ctx, newUser("alice@example.com", 1)))
	err := st.Users().Create(ctx, newUser("bob@example.com", 1))
	require.ErrorIs(t, err, domain.ErrDuplicatePhone)
}

func TestGetMissing(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	_, err := st.Users().GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrRecordNotFound)

	_, err = st.Users().GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExists(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()
	require.NoError(t, st.Users().Create(ctx, newUser("alice@example.com", 5551234)))

	ok, err := st.Users().ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Users().ExistsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.Users().ExistsByPhone(ctx, 5551234)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Users().ExistsByPhone(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListOrderedByCreation(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	second := newUser("b@example.com", 2)
	second.CreatedAt = base.Add(time.Minute)
	first := newUser("a@example.com", 1)
	first.CreatedAt = base

	require.NoError(t, st.Users().Create(ctx, second))
	require.NoError(t, st.Users().Create(ctx, first))

	users, err := st.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email)
	assert.Equal(t, "b@example.com", users[1].Email)
}

func TestPing(t *testing.T) {
	st := storetest.New(t)
	require.NoError(t, st.Ping(context.Background()))
}
