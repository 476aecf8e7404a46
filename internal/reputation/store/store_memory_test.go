package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

type ClaimStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
	owner id.UserID
}

func (s *ClaimStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.owner = id.NewUserID()
}

func (s *ClaimStoreSuite) claimOf(claimType reputation.ClaimType) reputation.Claim {
	return reputation.Claim{
		ID:      id.NewClaimID(),
		OwnerID: s.owner,
		Type:    claimType,
		Data:    []byte(`{}`),
	}
}

func (s *ClaimStoreSuite) TestReplaceForOwnerSwapsWholeSet() {
	first := []reputation.Claim{s.claimOf(reputation.ClaimRentHistory), s.claimOf(reputation.ClaimBankHealth)}
	s.Require().NoError(s.store.ReplaceForOwner(s.ctx, s.owner, first))

	second := []reputation.Claim{s.claimOf(reputation.ClaimIncomeStability)}
	s.Require().NoError(s.store.ReplaceForOwner(s.ctx, s.owner, second))

	claims, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(claims, 1)
	s.Equal(reputation.ClaimIncomeStability, claims[0].Type)
}

func (s *ClaimStoreSuite) TestReplaceForOwnerWithEmptySetClears() {
	s.Require().NoError(s.store.ReplaceForOwner(s.ctx, s.owner, []reputation.Claim{s.claimOf(reputation.ClaimRentHistory)}))
	s.Require().NoError(s.store.ReplaceForOwner(s.ctx, s.owner, nil))

	claims, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Empty(claims)
}

func (s *ClaimStoreSuite) TestListByOwnerSortsByType() {
	claims := []reputation.Claim{
		s.claimOf(reputation.ClaimUtilityPayment),
		s.claimOf(reputation.ClaimBankHealth),
		s.claimOf(reputation.ClaimIncomeStability),
	}
	s.Require().NoError(s.store.ReplaceForOwner(s.ctx, s.owner, claims))

	listed, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal(reputation.ClaimBankHealth, listed[0].Type)
	s.Equal(reputation.ClaimIncomeStability, listed[1].Type)
	s.Equal(reputation.ClaimUtilityPayment, listed[2].Type)
}

func (s *ClaimStoreSuite) TestFindOwnedByIDsScopesToOwner() {
	claim := s.claimOf(reputation.ClaimRentHistory)
	s.Require().NoError(s.store.ReplaceForOwner(s.ctx, s.owner, []reputation.Claim{claim}))

	found, err := s.store.FindOwnedByIDs(s.ctx, s.owner, []id.ClaimID{claim.ID})
	s.Require().NoError(err)
	s.Len(found, 1)

	found, err = s.store.FindOwnedByIDs(s.ctx, id.NewUserID(), []id.ClaimID{claim.ID})
	s.Require().NoError(err)
	s.Empty(found)

	found, err = s.store.FindOwnedByIDs(s.ctx, s.owner, []id.ClaimID{id.NewClaimID()})
	s.Require().NoError(err)
	s.Empty(found)
}

func TestClaimStoreSuite(t *testing.T) {
	suite.Run(t, new(ClaimStoreSuite))
}
