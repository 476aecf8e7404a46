package store

import (
	"context"
	"sort"
	"sync"

	"trustbridge/internal/credential"
	id "trustbridge/pkg/domain"
	"trustbridge/pkg/platform/sentinel"
)

// InMemory keeps credentials in maps behind a mutex.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.CredentialID]credential.Credential
	byToken map[string]id.CredentialID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.CredentialID]credential.Credential),
		byToken: make(map[string]id.CredentialID),
	}
}

func (s *InMemory) Create(_ context.Context, cred credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[cred.Token]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byID[cred.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[cred.ID] = cred
	s.byToken[cred.Token] = cred.ID
	return nil
}

func (s *InMemory) FindByToken(_ context.Context, token string) (credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credID, ok := s.byToken[token]
	if !ok {
		return credential.Credential{}, sentinel.ErrNotFound
	}
	return s.byID[credID], nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.UserID) ([]credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []credential.Credential
	for _, cred := range s.byID {
		if cred.OwnerID == owner {
			out = append(out, cred)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Revoke(_ context.Context, owner id.UserID, credID id.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[credID]
	if !ok || cred.OwnerID != owner {
		return sentinel.ErrNotFound
	}
	cred.IsRevoked = true
	s.byID[credID] = cred
	return nil
}

func (s *InMemory) IncrementViewCount(_ context.Context, credID id.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[credID]
	if !ok {
		return sentinel.ErrNotFound
	}
	cred.ViewCount++
	s.byID[credID] = cred
	return nil
}
