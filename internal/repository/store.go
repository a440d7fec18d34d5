package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// GormStore is the Postgres-backed Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new store on top of an initialized connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// NewRepositories binds every repository to db, which may be a transaction
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:   NewUserRepository(db),
		Groups:  NewGroupRepository(db),
		Members: NewMemberRepository(db),
	}
}

// WithinTransaction runs fn in a read-committed transaction. Row locks taken
// through GetByIDForUpdate serialize transitions on the same group.
func (s *GormStore) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// WithinReadOnlyTransaction runs fn in a repeatable-read, read-only
// transaction so a group and its members are read from the same snapshot.
func (s *GormStore) WithinReadOnlyTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
