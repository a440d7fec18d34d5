package repository

import (
	"context"

	"gift-exchange-backend/internal/database/models"

	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/repository_mocks.go -package=mocks

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	EnsureExists(user *models.User) error
	GetByID(id string) (*models.User, error)
}

// GroupRepositoryInterface defines the interface for group repository operations
type GroupRepositoryInterface interface {
	Create(group *models.Group) error
	GetByID(id uuid.UUID) (*models.Group, error)
	// GetByIDForUpdate reads the group and holds a row lock until the
	// surrounding transaction ends.
	GetByIDForUpdate(id uuid.UUID) (*models.Group, error)
	GetByName(name string) (*models.Group, error)
	GetAll(limit, offset int) ([]models.Group, int64, error)
	SetRevealed(id uuid.UUID, revealed bool) error
	Delete(id uuid.UUID) error
}

// MemberRepositoryInterface defines the interface for member repository operations
type MemberRepositoryInterface interface {
	Create(member *models.Member) error
	Get(groupID uuid.UUID, userID string) (*models.Member, error)
	GetByGroupID(groupID uuid.UUID) ([]models.Member, error)
	GetByUserID(userID string, limit, offset int) ([]models.Member, int64, error)
	CountByGroupID(groupID uuid.UUID) (int64, error)
	// AssignRecipient sets the recipient only if none is set yet. It reports
	// false when the row was missing or already had a recipient.
	AssignRecipient(groupID uuid.UUID, userID, recipientID string) (bool, error)
	DeleteByGroupID(groupID uuid.UUID) error
}

// Repositories groups the repositories bound to one unit of work
type Repositories struct {
	Users   UserRepositoryInterface
	Groups  GroupRepositoryInterface
	Members MemberRepositoryInterface
}

// Store is the persistence gateway. Every lifecycle transition runs inside
// WithinTransaction and either commits every write or none.
type Store interface {
	// WithinTransaction runs fn in a read-write transaction. A non-nil error
	// from fn rolls the transaction back and is returned unchanged.
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
	// WithinReadOnlyTransaction runs fn against a consistent snapshot.
	WithinReadOnlyTransaction(ctx context.Context, fn func(repos Repositories) error) error
	Ping(ctx context.Context) error
}
