package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

// Ping reports whether the underlying connection pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("store: sql handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
