package store

import (
	"context"
	"sort"
	"sync"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

// InMemory keeps claim sets per owner behind one mutex, which makes the
// whole-set swap trivially atomic.
type InMemory struct {
	mu     sync.RWMutex
	claims map[id.UserID][]reputation.Claim
}

func NewInMemory() *InMemory {
	return &InMemory{claims: make(map[id.UserID][]reputation.Claim)}
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.UserID) ([]reputation.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]reputation.Claim{}, s.claims[owner]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *InMemory) FindOwnedByIDs(_ context.Context, owner id.UserID, ids []id.ClaimID) ([]reputation.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[id.ClaimID]bool, len(ids))
	for _, claimID := range ids {
		wanted[claimID] = true
	}
	var out []reputation.Claim
	for _, claim := range s.claims[owner] {
		if wanted[claim.ID] {
			out = append(out, claim)
		}
	}
	return out, nil
}

func (s *InMemory) ReplaceForOwner(_ context.Context, owner id.UserID, claims []reputation.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[owner] = append([]reputation.Claim{}, claims...)
	return nil
}
