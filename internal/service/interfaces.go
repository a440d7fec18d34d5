package service

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/service_mocks.go -package=mocks

// GroupServiceInterface defines the group lifecycle operations
type GroupServiceInterface interface {
	Create(ctx context.Context, actor Identity, req *CreateGroupRequest) (*GroupResponse, error)
	GetByID(ctx context.Context, viewer Identity, id uuid.UUID) (*GroupDetailResponse, error)
	List(ctx context.Context, viewer Identity, mode string, page, pageSize int) (*GroupListResponse, error)
	Assign(ctx context.Context, actor Identity, id uuid.UUID) (*TransitionResponse, error)
	Reveal(ctx context.Context, actor Identity, id uuid.UUID) (*TransitionResponse, error)
	Retire(ctx context.Context, actor Identity, id uuid.UUID) error
}

// MembershipServiceInterface defines the membership operations
type MembershipServiceInterface interface {
	Join(ctx context.Context, actor Identity, groupID uuid.UUID, req *JoinGroupRequest) (*MemberResponse, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]MemberResponse, error)
}

// Matcher produces a self-free assignment over member ids
type Matcher interface {
	Derange(ids []string) (map[string]string, error)
}

// TransitionRecorder observes the outcome of lifecycle transitions
type TransitionRecorder interface {
	ObserveTransition(transition string, err error)
}
