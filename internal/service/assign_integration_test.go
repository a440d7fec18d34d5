//go:build integration
// +build integration

package service_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/matching"
	"gift-exchange-backend/internal/repository"
	"gift-exchange-backend/internal/service"
	"gift-exchange-backend/internal/testutils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	testutils.RunMain(m, "service")
}

// PostgresAssignTestSuite runs Assign through GormStore row locking
type PostgresAssignTestSuite struct {
	suite.Suite
	ctx           context.Context
	baseTestSuite *testutils.BaseTestSuite
	groups        *service.GroupService
	memberships   *service.MembershipService
}

func (suite *PostgresAssignTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	suite.baseTestSuite = testutils.SetupTestSuite(suite.T())
	store := repository.NewGormStore(suite.baseTestSuite.DB)
	v := validator.New()
	generator := matching.NewGenerator(rand.NewSource(5), matching.DefaultMaxAttempts)
	suite.groups = service.NewGroupService(store, generator, v, nil).WithSecretCost(bcrypt.MinCost)
	suite.memberships = service.NewMembershipService(store, v, nil, 0)
}

func (suite *PostgresAssignTestSuite) TearDownSuite() {
	suite.baseTestSuite.TeardownTestSuite()
}

func (suite *PostgresAssignTestSuite) SetupTest() {
	suite.baseTestSuite.SetupTest()
}

func (suite *PostgresAssignTestSuite) createGroup(name string, ids ...string) uuid.UUID {
	group, err := suite.groups.Create(suite.ctx, identity(ids[0]), &service.CreateGroupRequest{Name: name})
	suite.Require().NoError(err)
	for _, id := range ids[1:] {
		_, err := suite.memberships.Join(suite.ctx, identity(id), group.ID, &service.JoinGroupRequest{})
		suite.Require().NoError(err)
	}
	return group.ID
}

func (suite *PostgresAssignTestSuite) TestConcurrentAssignStoresOneDerangement() {
	ids := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	groupID := suite.createGroup("Winter24", ids...)

	const callers = 6
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = suite.groups.Assign(suite.ctx, identity("alice"), groupID)
		}(i)
	}
	close(start)
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

	members, err := suite.memberships.ListMembers(suite.ctx, groupID)
	suite.Require().NoError(err)
	suite.Len(members, len(ids))

	targeted := map[string]bool{}
	for _, m := range members {
		suite.Require().NotNil(m.RecipientID, "%s has no recipient", m.UserID)
		suite.NotEqual(m.UserID, *m.RecipientID)
		suite.Contains(ids, *m.RecipientID)
		suite.False(targeted[*m.RecipientID], "%s is targeted twice", *m.RecipientID)
		targeted[*m.RecipientID] = true
	}

	_, err = suite.groups.Reveal(suite.ctx, identity("alice"), groupID)
	suite.NoError(err)
}

func TestPostgresAssignTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresAssignTestSuite))
}
