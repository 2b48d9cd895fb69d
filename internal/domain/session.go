package domain

import "time"

// TokenPair is always issued as a unit; both tokens share the same subject.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenClaims is what a verified access or refresh token vouches for.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// Session is what the request guard hands to downstream handlers: the user
// resolved from the refresh token and the freshly rotated token pair.
type Session struct {
	User   *User
	Tokens TokenPair
}
