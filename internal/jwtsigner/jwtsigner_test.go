package jwtsigner

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s, err := New("secret-a", "users")
	require.NoError(t, err)

	tok, err := s.Sign(testClaims{Kind: "access", RegisteredClaims: s.Registered("user-1", time.Minute)})
	require.NoError(t, err)

	var got testClaims
	require.NoError(t, s.Verify(tok, &got))
	assert.Equal(t, "access", got.Kind)
	assert.Equal(t, "user-1", got.Subject)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	a, _ := New("secret-a", "users")
	b, _ := New("secret-b", "users")

	tok, err := a.Sign(testClaims{RegisteredClaims: a.Registered("user-1", time.Minute)})
	require.NoError(t, err)

	err = b.Verify(tok, &testClaims{})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsExpired(t *testing.T) {
	s, _ := New("secret-a", "users")
	past := s.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })

	tok, err := past.Sign(testClaims{RegisteredClaims: past.Registered("user-1", time.Minute)})
	require.NoError(t, err)

	require.ErrorIs(t, s.Verify(tok, &testClaims{}), ErrInvalid)
}

func TestVerifyRejectsTampered(t *testing.T) {
	s, _ := New("secret-a", "users")
	tok, err := s.Sign(testClaims{RegisteredClaims: s.Registered("user-1", time.Minute)})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	other, err := s.Sign(testClaims{RegisteredClaims: s.Registered("user-2", time.Minute)})
	require.NoError(t, err)
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	require.ErrorIs(t, s.Verify(forged, &testClaims{}), ErrInvalid)
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	s, _ := New("secret-a", "users")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, s.Registered("user-1", time.Minute)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	require.ErrorIs(t, s.Verify(tok, &testClaims{}), ErrInvalid)
}

func TestDecodeUnverified(t *testing.T) {
	s, _ := New("secret-a", "users")
	tok, err := s.Sign(testClaims{Kind: "refresh", RegisteredClaims: s.Registered("user-1", time.Minute)})
	require.NoError(t, err)

	claims, ok := DecodeUnverified(tok)
	require.True(t, ok)
	assert.Equal(t, "refresh", claims["kind"])
	assert.Equal(t, "user-1", claims["sub"])

	_, ok = DecodeUnverified("not-a-jwt")
	assert.False(t, ok)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("", "users")
	require.ErrorIs(t, err, ErrEmptySecret)
}
