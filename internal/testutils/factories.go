package testutils

import (
	"fmt"
	"sync/atomic"
	"time"

	"gift-exchange-backend/internal/database/models"

	"github.com/google/uuid"
)

// TestJWTSecret signs tokens in tests
const TestJWTSecret = "test-secret-key"

var sequence atomic.Uint64

func nextSeq() uint64 {
	return sequence.Add(1)
}

// UserFactory provides methods to create test User data
type UserFactory struct{}

// NewUserFactory creates a new UserFactory
func NewUserFactory() *UserFactory {
	return &UserFactory{}
}

// Create creates a test User with a unique id
func (f *UserFactory) Create() *models.User {
	n := nextSeq()
	return &models.User{
		ID:   fmt.Sprintf("user-%d", n),
		Name: fmt.Sprintf("Test User %d", n),
	}
}

// WithID creates a test User with the given id
func (f *UserFactory) WithID(id string) *models.User {
	return &models.User{ID: id, Name: id}
}

// GroupFactory provides methods to create test Group data
type GroupFactory struct{}

// NewGroupFactory creates a new GroupFactory
func NewGroupFactory() *GroupFactory {
	return &GroupFactory{}
}

// Create creates a test Group with a unique name
func (f *GroupFactory) Create() *models.Group {
	return &models.Group{
		BaseModel: models.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Name: fmt.Sprintf("Test Group %d", nextSeq()),
	}
}

// WithName creates a test Group with a custom name
func (f *GroupFactory) WithName(name string) *models.Group {
	group := f.Create()
	group.Name = name
	return group
}

// Revealed creates a test Group whose assignment has been revealed
func (f *GroupFactory) Revealed() *models.Group {
	group := f.Create()
	group.IsRevealed = true
	return group
}

// MemberFactory provides methods to create test Member data
type MemberFactory struct{}

// NewMemberFactory creates a new MemberFactory
func NewMemberFactory() *MemberFactory {
	return &MemberFactory{}
}

// Captain creates the captain membership of a group
func (f *MemberFactory) Captain(groupID uuid.UUID, userID string) *models.Member {
	return &models.Member{
		GroupID:  groupID,
		UserID:   userID,
		Role:     models.MemberRoleCaptain,
		JoinedAt: time.Now(),
	}
}

// Member creates a regular membership of a group
func (f *MemberFactory) Member(groupID uuid.UUID, userID string) *models.Member {
	return &models.Member{
		GroupID:  groupID,
		UserID:   userID,
		Role:     models.MemberRoleMember,
		JoinedAt: time.Now(),
	}
}

// WithRecipient creates a regular membership that already has a recipient
func (f *MemberFactory) WithRecipient(groupID uuid.UUID, userID, recipientID string) *models.Member {
	member := f.Member(groupID, userID)
	member.RecipientID = &recipientID
	return member
}

// FactorySet bundles all factories
type FactorySet struct {
	User   *UserFactory
	Group  *GroupFactory
	Member *MemberFactory
}

// NewFactorySet creates a new FactorySet
func NewFactorySet() *FactorySet {
	return &FactorySet{
		User:   NewUserFactory(),
		Group:  NewGroupFactory(),
		Member: NewMemberFactory(),
	}
}
