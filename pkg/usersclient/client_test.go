package usersclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"users/internal/domain"
	"users/internal/dto"
	"users/internal/jwtsigner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionExpiry = time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/users/register", func(w http.ResponseWriter, r *http.Request) {
		var req dto.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email == "taken@x.com" {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already exists"})
			return
		}
		writeJSON(w, http.StatusOK, dto.RegisterResponse{ActivationToken: "act-" + req.Email})
	})
	mux.HandleFunc("POST /v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req dto.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, dto.LoginResponse{Error: &dto.ErrorBody{Message: "Invalid email or password"}})
			return
		}
		access, refresh := "a1", "r1"
		writeJSON(w, http.StatusOK, dto.LoginResponse{
			User:         &dto.UserResponse{Email: req.Email},
			AccessToken:  &access,
			RefreshToken: &refresh,
		})
	})
	mux.HandleFunc("GET /v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerAccessToken) != "a1" || r.Header.Get(headerRefreshToken) != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid access token"})
			return
		}
		w.Header().Set(headerAccessToken, "a2")
		w.Header().Set(headerRefreshToken, "r2")
		writeJSON(w, http.StatusOK, dto.NewSessionUserResponse(&domain.User{Name: "Alice"}, domain.TokenPair{
			AccessToken:      "a2",
			RefreshToken:     "r2",
			AccessExpiresAt:  sessionExpiry,
			RefreshExpiresAt: sessionExpiry.Add(time.Hour),
		}))
	})
	mux.HandleFunc("GET /v1/users", func(w http.ResponseWriter, r *http.Request) {
		s, err := jwtsigner.New("secret", "users")
		require.NoError(t, err)
		s = s.WithClock(func() time.Time { return sessionExpiry.Add(-5 * time.Minute) })
		access, err := s.Sign(s.Registered("u-1", 5*time.Minute))
		require.NoError(t, err)
		refresh, err := s.Sign(s.Registered("u-1", time.Hour))
		require.NoError(t, err)
		w.Header().Set(headerAccessToken, access)
		w.Header().Set(headerRefreshToken, refresh)
		writeJSON(w, http.StatusOK, dto.UsersResponse{Users: []dto.UserResponse{{Name: "Alice"}}})
	})
	mux.HandleFunc("POST /v1/users/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.LogoutResponse{Message: "Logged out successfully"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRegister(t *testing.T) {
	c := NewClient(newTestServer(t).URL + "/")

	res, err := c.Register(context.Background(), dto.RegisterRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "act-a@x.com", res.ActivationToken)

	_, err = c.Register(context.Background(), dto.RegisterRequest{Email: "taken@x.com"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Email already exists", apiErr.Message)
}

func TestLoginAndRotation(t *testing.T) {
	c := NewClient(newTestServer(t).URL)
	ctx := context.Background()

	_, _, err := c.Login(ctx, "a@x.com", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	u, tokens, err := c.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, Tokens{Access: "a1", Refresh: "r1"}, tokens)

	me, next, err := c.Me(ctx, tokens)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, Tokens{
		Access:           "a2",
		Refresh:          "r2",
		AccessExpiresAt:  sessionExpiry,
		RefreshExpiresAt: sessionExpiry.Add(time.Hour),
	}, next)

	_, kept, err := c.Me(ctx, next)
	require.Error(t, err)
	assert.Equal(t, next, kept)

	msg, err := c.Logout(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "Logged out successfully", msg)
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8081", NewClient("  ").baseURL)
}

func TestAPIErrorWithoutMessage(t *testing.T) {
	err := &APIError{Status: http.StatusBadGateway}
	assert.Equal(t, "users: 502 Bad Gateway", err.Error())
}

func TestUsersReadsExpiryFromRotatedHeaders(t *testing.T) {
	c := NewClient(newTestServer(t).URL)

	users, next, err := c.Users(context.Background(), Tokens{Access: "a1", Refresh: "r1"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "a1", next.Access)
	assert.True(t, next.AccessExpiresAt.Equal(sessionExpiry))
	assert.True(t, next.RefreshExpiresAt.Equal(sessionExpiry.Add(55*time.Minute)))
}
