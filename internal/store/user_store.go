package store

import (
	"context"
	"errors"
	"time"

	"users/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

// Create inserts usr. Uniqueness of email and phone number is left to the
// unique indexes so concurrent activations cannot both succeed.
func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now
	return translateUnique(u.db.WithContext(ctx).Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return u.exists(ctx, "email = ?", email)
}

func (u *UserStore) ExistsByPhone(ctx context.Context, phone int64) (bool, error) {
	return u.exists(ctx, "phone_number = ?", phone)
}

// List returns every user ordered by creation time.
func (u *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := u.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserStore) exists(ctx context.Context, query string, arg any) (bool, error) {
	var n int64
	if err := u.db.WithContext(ctx).Model(&domain.User{}).Where(query, arg).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
