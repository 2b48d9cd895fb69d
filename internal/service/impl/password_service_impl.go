package impl

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 10

type PasswordServiceImpl struct {
	cost int
}

// NewPasswordServiceBcrypt returns a hasher using cost, or DefaultBcryptCost
// when cost is outside bcrypt's accepted range.
func NewPasswordServiceBcrypt(cost int) *PasswordServiceImpl {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordServiceImpl{cost: cost}
}

func (p *PasswordServiceImpl) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordLength
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// Compare reports whether password matches hash. Malformed hashes never match.
func (p *PasswordServiceImpl) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
