// Package usersclient is a small HTTP client for the users service. Guarded
// calls return the rotated token pair so callers can keep their session alive.
package usersclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"users/internal/domain"
	"users/internal/dto"
	"users/internal/jwtsigner"
)

const (
	headerAccessToken  = "accesstoken"
	headerRefreshToken = "refreshtoken"
)

type Tokens struct {
	Access           string    `json:"accessToken"`
	Refresh          string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func tokensFrom(t dto.TokenResponse) Tokens {
	return Tokens{
		Access:           t.AccessToken,
		Refresh:          t.RefreshToken,
		AccessExpiresAt:  t.AccessExpiresAt,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}
}

// APIError is a non-2xx answer from the service. A rejected login unwraps to
// domain.ErrInvalidCredentials.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("users: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("users: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "http://localhost:8081"
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var out dto.RegisterResponse
	if _, err := c.do(ctx, http.MethodPost, "/v1/users/register", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Activate(ctx context.Context, token, code string) (*dto.UserResponse, error) {
	var out dto.ActivationResponse
	req := dto.ActivationRequest{ActivationToken: token, ActivationCode: code}
	if _, err := c.do(ctx, http.MethodPost, "/v1/users/activate", req, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login returns the token pair on success. A rejected login is reported as an
// *APIError carrying the server's message.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.UserResponse, Tokens, error) {
	req := dto.LoginRequest{Email: email, Password: password}
	var out dto.LoginResponse
	_, err := c.do(ctx, http.MethodPost, "/v1/users/login", req, nil, &out)
	if out.Error != nil {
		return nil, Tokens{}, &APIError{
			Status:  http.StatusUnauthorized,
			Message: out.Error.Message,
			Err:     domain.ErrInvalidCredentials,
		}
	}
	if err != nil {
		return nil, Tokens{}, err
	}
	if out.AccessToken == nil || out.RefreshToken == nil {
		return nil, Tokens{}, fmt.Errorf("users: login response without tokens")
	}
	tokens := Tokens{Access: *out.AccessToken, Refresh: *out.RefreshToken}
	if out.AccessExpiresAt != nil && out.RefreshExpiresAt != nil {
		tokens.AccessExpiresAt = *out.AccessExpiresAt
		tokens.RefreshExpiresAt = *out.RefreshExpiresAt
	}
	return out.User, tokens, nil
}

// Me returns the caller's profile; the body carries the rotated pair with
// its expiries.
func (c *Client) Me(ctx context.Context, t Tokens) (*dto.UserResponse, Tokens, error) {
	var out dto.SessionUserResponse
	if _, err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, &t, &out); err != nil {
		return nil, t, err
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return out.User, t, nil
	}
	return out.User, tokensFrom(out.TokenResponse), nil
}

func (c *Client) Users(ctx context.Context, t Tokens) ([]dto.UserResponse, Tokens, error) {
	var out dto.UsersResponse
	h, err := c.do(ctx, http.MethodGet, "/v1/users", nil, &t, &out)
	if err != nil {
		return nil, t, err
	}
	return out.Users, rotated(h, t), nil
}

func (c *Client) Logout(ctx context.Context, t Tokens) (string, error) {
	var out dto.LogoutResponse
	if _, err := c.do(ctx, http.MethodPost, "/v1/users/logout", nil, &t, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// rotated picks the new pair from the response headers. Expiries are read
// from the tokens themselves; the server has already verified them.
func rotated(h http.Header, prev Tokens) Tokens {
	access, refresh := h.Get(headerAccessToken), h.Get(headerRefreshToken)
	if access == "" || refresh == "" {
		return prev
	}
	return Tokens{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  expiry(access),
		RefreshExpiresAt: expiry(refresh),
	}
}

func expiry(token string) time.Time {
	claims, ok := jwtsigner.DecodeUnverified(token)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (c *Client) do(ctx context.Context, method, path string, in any, t *Tokens, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t != nil {
		req.Header.Set(headerAccessToken, t.Access)
		req.Header.Set(headerRefreshToken, t.Refresh)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if out != nil && len(data) > 0 {
		// Error bodies may not match out; only 2xx decode failures matter.
		if derr := json.Unmarshal(data, out); derr != nil && resp.StatusCode < 300 {
			return nil, derr
		}
	}
	if resp.StatusCode >= 300 {
		return resp.Header, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return resp.Header, nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(data))
}
