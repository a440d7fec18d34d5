package service_test

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"gift-exchange-backend/internal/database/models"
	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/matching"
	"gift-exchange-backend/internal/repository/memory"
	"gift-exchange-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

func identity(id string) service.Identity {
	return service.Identity{UserID: id, Name: "User " + id}
}

// GroupServiceTestSuite runs the lifecycle against the in-memory store
type GroupServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	store       *memory.Store
	generator   *matching.Generator
	groups      *service.GroupService
	memberships *service.MembershipService
}

func (suite *GroupServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.generator = matching.NewGenerator(rand.NewSource(11), matching.DefaultMaxAttempts)
	v := validator.New()
	suite.groups = service.NewGroupService(suite.store, suite.generator, v, nil).WithSecretCost(bcrypt.MinCost)
	suite.memberships = service.NewMembershipService(suite.store, v, nil, 0)
}

// createGroup creates a group captained by the first id and joined by the rest
func (suite *GroupServiceTestSuite) createGroup(name string, ids ...string) uuid.UUID {
	group, err := suite.groups.Create(suite.ctx, identity(ids[0]), &service.CreateGroupRequest{Name: name})
	suite.Require().NoError(err)
	for _, id := range ids[1:] {
		_, err := suite.memberships.Join(suite.ctx, identity(id), group.ID, &service.JoinGroupRequest{})
		suite.Require().NoError(err)
	}
	return group.ID
}

func (suite *GroupServiceTestSuite) recipients(groupID uuid.UUID) map[string]*string {
	members, err := suite.memberships.ListMembers(suite.ctx, groupID)
	suite.Require().NoError(err)
	out := make(map[string]*string, len(members))
	for _, m := range members {
		out[m.UserID] = m.RecipientID
	}
	return out
}

func (suite *GroupServiceTestSuite) assertDerangement(assignment map[string]*string) {
	seen := map[string]bool{}
	for giver, recipient := range assignment {
		suite.Require().NotNil(recipient, "%s has no recipient", giver)
		suite.NotEqual(giver, *recipient)
		suite.Contains(assignment, *recipient)
		suite.False(seen[*recipient], "%s is targeted twice", *recipient)
		seen[*recipient] = true
	}
}

func (suite *GroupServiceTestSuite) TestCreate() {
	group, err := suite.groups.Create(suite.ctx, identity("alice"), &service.CreateGroupRequest{Name: "  Office  ", Secret: "xyz"})
	suite.Require().NoError(err)

	suite.Equal("Office", group.Name)
	suite.True(group.HasSecret)
	suite.False(group.IsRevealed)
	suite.Equal(models.LifecycleStateOpen, group.State)

	members, err := suite.memberships.ListMembers(suite.ctx, group.ID)
	suite.Require().NoError(err)
	suite.Require().Len(members, 1)
	suite.Equal("alice", members[0].UserID)
	suite.Equal("User alice", members[0].Name)
	suite.Equal(models.MemberRoleCaptain, members[0].Role)
}

func (suite *GroupServiceTestSuite) TestCreateValidation() {
	testCases := []struct {
		name  string
		actor service.Identity
		req   *service.CreateGroupRequest
		check func(error) bool
	}{
		{"empty name", identity("alice"), &service.CreateGroupRequest{Name: ""}, apperrors.IsValidation},
		{"blank name", identity("alice"), &service.CreateGroupRequest{Name: "   "}, apperrors.IsValidation},
		{"name too long", identity("alice"), &service.CreateGroupRequest{Name: strings.Repeat("x", 101)}, apperrors.IsValidation},
		{"secret over 72 bytes", identity("alice"), &service.CreateGroupRequest{Name: "x", Secret: strings.Repeat("비", 30)}, apperrors.IsValidation},
		{"anonymous", service.Identity{}, &service.CreateGroupRequest{Name: "x"}, apperrors.IsAuthentication},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.groups.Create(suite.ctx, tc.actor, tc.req)
			suite.Error(err)
			suite.True(tc.check(err), "unexpected error %v", err)
		})
	}
}

func (suite *GroupServiceTestSuite) TestCreateMultibyteSecret() {
	// 24 runes, 72 bytes
	secret := strings.Repeat("비", 24)
	group, err := suite.groups.Create(suite.ctx, identity("alice"), &service.CreateGroupRequest{Name: "선물 교환", Secret: secret})
	suite.Require().NoError(err)
	suite.True(group.HasSecret)

	_, err = suite.memberships.Join(suite.ctx, identity("bob"), group.ID, &service.JoinGroupRequest{Secret: secret})
	suite.NoError(err)

	_, err = suite.groups.Create(suite.ctx, identity("alice"), &service.CreateGroupRequest{Name: "too long", Secret: secret + "비"})
	suite.True(apperrors.IsValidation(err), "unexpected error %v", err)
	suite.Equal(apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func (suite *GroupServiceTestSuite) TestCreateDuplicateName() {
	suite.createGroup("Winter24", "alice")

	_, err := suite.groups.Create(suite.ctx, identity("bob"), &service.CreateGroupRequest{Name: "Winter24"})
	suite.ErrorIs(err, apperrors.ErrGroupExists)
	suite.Equal(apperrors.KindConflict, apperrors.KindOf(err))
}

func (suite *GroupServiceTestSuite) TestAssign() {
	id := suite.createGroup("office", "a", "b", "c")

	resp, err := suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)
	suite.Equal(id, resp.GroupID)
	suite.Equal(models.LifecycleStateAssigned, resp.State)

	suite.assertDerangement(suite.recipients(id))
	suite.Zero(suite.generator.Retries())
}

func (suite *GroupServiceTestSuite) TestAssignTwoMembersSwap() {
	id := suite.createGroup("pair", "a", "b")

	_, err := suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)

	assignment := suite.recipients(id)
	suite.Equal("b", *assignment["a"])
	suite.Equal("a", *assignment["b"])
}

func (suite *GroupServiceTestSuite) TestAssignTwiceKeepsFirstAssignment() {
	id := suite.createGroup("office", "a", "b", "c", "d")

	_, err := suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)
	first := suite.recipients(id)

	_, err = suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.ErrorIs(err, apperrors.ErrAlreadyAssigned)
	suite.Equal(apperrors.KindConflict, apperrors.KindOf(err))

	suite.Equal(first, suite.recipients(id))
}

func (suite *GroupServiceTestSuite) TestAssignGuards() {
	id := suite.createGroup("office", "a", "b")
	solo := suite.createGroup("solo", "z")

	suite.Run("not found", func() {
		_, err := suite.groups.Assign(suite.ctx, identity("a"), uuid.New())
		suite.ErrorIs(err, apperrors.ErrGroupNotFound)
	})

	suite.Run("member is not captain", func() {
		_, err := suite.groups.Assign(suite.ctx, identity("b"), id)
		suite.ErrorIs(err, apperrors.ErrNotCaptain)
	})

	suite.Run("outsider is not captain", func() {
		_, err := suite.groups.Assign(suite.ctx, identity("mallory"), id)
		suite.ErrorIs(err, apperrors.ErrNotCaptain)
	})

	suite.Run("anonymous", func() {
		_, err := suite.groups.Assign(suite.ctx, service.Identity{}, id)
		suite.ErrorIs(err, apperrors.ErrIdentityRequired)
	})

	suite.Run("too few members", func() {
		_, err := suite.groups.Assign(suite.ctx, identity("z"), solo)
		suite.ErrorIs(err, apperrors.ErrTooFewMembers)
		suite.Equal(apperrors.KindPreconditionFailed, apperrors.KindOf(err))
	})

	for _, recipient := range suite.recipients(id) {
		suite.Nil(recipient)
	}
}

func (suite *GroupServiceTestSuite) TestConcurrentAssignPersistsOneAssignment() {
	id := suite.createGroup("race", "a", "b", "c", "d", "e")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.groups.Assign(suite.ctx, identity("a"), id)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		suite.ErrorIs(err, apperrors.ErrAlreadyAssigned)
	}
	suite.Equal(1, successes)
	suite.assertDerangement(suite.recipients(id))
}

func (suite *GroupServiceTestSuite) TestReveal() {
	id := suite.createGroup("office", "a", "b", "c")

	_, err := suite.groups.Reveal(suite.ctx, identity("a"), id)
	suite.ErrorIs(err, apperrors.ErrIncompleteAssignment)

	_, err = suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)

	_, err = suite.groups.Reveal(suite.ctx, identity("b"), id)
	suite.ErrorIs(err, apperrors.ErrNotCaptain)

	resp, err := suite.groups.Reveal(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)
	suite.Equal(models.LifecycleStateRevealed, resp.State)

	// a second reveal is a no-op
	_, err = suite.groups.Reveal(suite.ctx, identity("a"), id)
	suite.NoError(err)

	for i := 0; i < 3; i++ {
		group, err := suite.groups.GetByID(suite.ctx, identity("b"), id)
		suite.Require().NoError(err)
		suite.True(group.IsRevealed)
		suite.Equal(models.LifecycleStateRevealed, group.State)
	}

	_, err = suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.ErrorIs(err, apperrors.ErrAlreadyAssigned)
}

func (suite *GroupServiceTestSuite) TestRetire() {
	suite.Run("open group with members", func() {
		id := suite.createGroup("open", "a", "b")
		err := suite.groups.Retire(suite.ctx, identity("a"), id)
		suite.ErrorIs(err, apperrors.ErrRevealRequired)
	})

	suite.Run("assigned but not revealed", func() {
		id := suite.createGroup("assigned", "a", "b")
		_, err := suite.groups.Assign(suite.ctx, identity("a"), id)
		suite.Require().NoError(err)

		err = suite.groups.Retire(suite.ctx, identity("a"), id)
		suite.ErrorIs(err, apperrors.ErrRevealRequired)
	})

	suite.Run("captain alone", func() {
		id := suite.createGroup("alone", "a")
		suite.NoError(suite.groups.Retire(suite.ctx, identity("a"), id))

		_, err := suite.groups.GetByID(suite.ctx, identity("a"), id)
		suite.ErrorIs(err, apperrors.ErrGroupNotFound)
	})

	suite.Run("not captain", func() {
		id := suite.createGroup("guarded", "a")
		err := suite.groups.Retire(suite.ctx, identity("b"), id)
		suite.ErrorIs(err, apperrors.ErrNotCaptain)
	})

	suite.Run("revealed", func() {
		id := suite.createGroup("revealed", "a", "b", "c")
		_, err := suite.groups.Assign(suite.ctx, identity("a"), id)
		suite.Require().NoError(err)
		_, err = suite.groups.Reveal(suite.ctx, identity("a"), id)
		suite.Require().NoError(err)

		suite.NoError(suite.groups.Retire(suite.ctx, identity("a"), id))

		_, err = suite.memberships.ListMembers(suite.ctx, id)
		suite.ErrorIs(err, apperrors.ErrGroupNotFound)

		// the name is free again
		_, err = suite.groups.Create(suite.ctx, identity("a"), &service.CreateGroupRequest{Name: "revealed"})
		suite.NoError(err)
	})
}

func (suite *GroupServiceTestSuite) TestGetByIDRedactsUntilReveal() {
	id := suite.createGroup("office", "a", "b", "c")
	_, err := suite.groups.Assign(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)

	group, err := suite.groups.GetByID(suite.ctx, identity("b"), id)
	suite.Require().NoError(err)
	suite.Equal(models.LifecycleStateAssigned, group.State)
	suite.Require().Len(group.Members, 3)
	for _, m := range group.Members {
		if m.UserID == "b" {
			suite.NotNil(m.RecipientID)
		} else {
			suite.Nil(m.RecipientID)
		}
	}

	anonymous, err := suite.groups.GetByID(suite.ctx, service.Identity{}, id)
	suite.Require().NoError(err)
	for _, m := range anonymous.Members {
		suite.Nil(m.RecipientID)
	}

	_, err = suite.groups.Reveal(suite.ctx, identity("a"), id)
	suite.Require().NoError(err)

	group, err = suite.groups.GetByID(suite.ctx, identity("b"), id)
	suite.Require().NoError(err)
	for _, m := range group.Members {
		suite.NotNil(m.RecipientID)
	}
}

func (suite *GroupServiceTestSuite) TestList() {
	suite.createGroup("first", "a", "b")
	suite.createGroup("second", "c")
	suite.createGroup("third", "b", "a")

	suite.Run("all", func() {
		list, err := suite.groups.List(suite.ctx, identity("a"), service.ListModeAll, 1, 2)
		suite.Require().NoError(err)
		suite.Equal(int64(3), list.Total)
		suite.Equal(1, list.Page)
		suite.Equal(2, list.PageSize)
		suite.Require().Len(list.Groups, 2)
		suite.Equal("third", list.Groups[0].Name)
		suite.True(list.Groups[0].IsJoined)
		suite.Equal("second", list.Groups[1].Name)
		suite.False(list.Groups[1].IsJoined)
		suite.Nil(list.Groups[1].Role)
	})

	suite.Run("joined", func() {
		list, err := suite.groups.List(suite.ctx, identity("a"), service.ListModeJoined, 1, 20)
		suite.Require().NoError(err)
		suite.Equal(int64(2), list.Total)
		suite.Require().Len(list.Groups, 2)

		roles := map[string]models.MemberRole{}
		for _, g := range list.Groups {
			suite.Require().NotNil(g.Role)
			roles[g.Name] = *g.Role
			suite.Equal(2, g.MemberCount)
		}
		suite.Equal(models.MemberRoleCaptain, roles["first"])
		suite.Equal(models.MemberRoleMember, roles["third"])
	})

	suite.Run("defaults", func() {
		list, err := suite.groups.List(suite.ctx, service.Identity{}, "", 0, 500)
		suite.Require().NoError(err)
		suite.Equal(1, list.Page)
		suite.Equal(20, list.PageSize)
		suite.Len(list.Groups, 3)
	})

	suite.Run("joined requires identity", func() {
		_, err := suite.groups.List(suite.ctx, service.Identity{}, service.ListModeJoined, 1, 20)
		suite.True(apperrors.IsValidation(err))
	})

	suite.Run("unknown mode", func() {
		_, err := suite.groups.List(suite.ctx, identity("a"), "mine", 1, 20)
		suite.True(apperrors.IsValidation(err))
	})
}

// TestWinterExchange walks one group through its whole lifecycle
func (suite *GroupServiceTestSuite) TestWinterExchange() {
	id := suite.createGroup("Winter24", "A", "B", "C", "D")

	_, err := suite.groups.Assign(suite.ctx, identity("A"), id)
	suite.Require().NoError(err)
	assignment := suite.recipients(id)
	suite.Len(assignment, 4)
	suite.assertDerangement(assignment)

	_, err = suite.groups.Reveal(suite.ctx, identity("A"), id)
	suite.Require().NoError(err)

	group, err := suite.groups.GetByID(suite.ctx, identity("C"), id)
	suite.Require().NoError(err)
	suite.True(group.IsRevealed)
	for _, m := range group.Members {
		suite.Require().NotNil(m.RecipientID)
		suite.Equal(*assignment[m.UserID], *m.RecipientID)
	}

	suite.Require().NoError(suite.groups.Retire(suite.ctx, identity("A"), id))

	_, err = suite.groups.GetByID(suite.ctx, identity("A"), id)
	suite.ErrorIs(err, apperrors.ErrGroupNotFound)
	suite.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGroupServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceTestSuite))
}
