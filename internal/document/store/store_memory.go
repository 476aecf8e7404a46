package store

import (
	"context"
	"sort"
	"sync"

	"trustbridge/internal/document"
	id "trustbridge/pkg/domain"
	"trustbridge/pkg/platform/sentinel"
)

// InMemory keeps documents in a mutex-guarded map. It backs the unit suites
// and the no-Postgres development mode.
type InMemory struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*document.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[id.DocumentID]*document.Document)}
}

func (s *InMemory) Create(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, docID id.DocumentID) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.UserID) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*document.Document
	for _, doc := range s.docs {
		if doc.OwnerID == owner {
			copied := *doc
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Transition runs validate then mutate while holding the store lock, so a
// concurrent trigger can never observe or apply a half-applied move.
func (s *InMemory) Transition(_ context.Context, docID id.DocumentID,
	validate func(*document.Document) error,
	mutate func(*document.Document)) (*document.Document, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	mutate(doc)
	copied := *doc
	return &copied, nil
}

// InMemoryTransactions keeps extracted transactions per document.
type InMemoryTransactions struct {
	mu   sync.RWMutex
	txns map[id.DocumentID][]document.Transaction
}

func NewInMemoryTransactions() *InMemoryTransactions {
	return &InMemoryTransactions{txns: make(map[id.DocumentID][]document.Transaction)}
}

func (s *InMemoryTransactions) InsertBatch(_ context.Context, txns []document.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := txns[0].DocumentID
	s.txns[docID] = append(s.txns[docID], txns...)
	return nil
}

func (s *InMemoryTransactions) ListByOwner(_ context.Context, owner id.UserID) ([]document.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []document.Transaction
	for _, batch := range s.txns {
		for _, txn := range batch {
			if txn.OwnerID == owner {
				out = append(out, txn)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Date, out[j].Date
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
	return out, nil
}

func (s *InMemoryTransactions) CountByDocument(_ context.Context, docID id.DocumentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txns[docID]), nil
}
