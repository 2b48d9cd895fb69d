package jwtsigner

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("jwtsigner: empty secret")
	ErrInvalid     = errors.New("jwtsigner: invalid token")
)

// Signer issues and verifies HS256 JWTs with a single shared secret.
type Signer struct {
	secret []byte
	Issuer string
	now    func() time.Time
}

func New(secret, iss string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret), Issuer: iss, now: time.Now}, nil
}

// WithClock returns a copy of the signer that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Signer) Now() time.Time { return s.now().UTC() }

// Registered builds the standard claims for subject sub expiring after ttl.
func (s *Signer) Registered(sub string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.Now()
	return jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks signature, algorithm, issuer and expiry, decoding the payload into claims.
func (s *Signer) Verify(token string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.Issuer))
	}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return ErrInvalid
	}
	return nil
}

// DecodeUnverified reads the payload without checking the signature.
// The result must never be trusted for authentication.
func DecodeUnverified(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
