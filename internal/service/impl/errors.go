package impl

import "errors"

var (
	ErrEmptyPassword  = errors.New("empty password")
	ErrPasswordLength = errors.New("password too long")
)

const (
	msgPleaseLogin         = "Please login to access this resource"
	msgInvalidAccessToken  = "Invalid access token"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgAuthFailed          = "Authentication failed"
	msgInvalidCredentials  = "Invalid email or password"
	msgLoggedOut           = "Logged out successfully"
)
