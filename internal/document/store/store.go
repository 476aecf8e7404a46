// Package store persists documents and their extracted transactions.
package store

import (
	"context"

	"trustbridge/internal/document"
	id "trustbridge/pkg/domain"
)

// DocumentStore is the persistence port for documents.
//
// Transition is the only mutation path after creation: it loads the document,
// runs validate, applies mutate, and persists — all under the store's lock
// (mutex in memory, row lock in Postgres) so illegal moves can never race in.
type DocumentStore interface {
	Create(ctx context.Context, doc *document.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*document.Document, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]*document.Document, error)
	Transition(ctx context.Context, docID id.DocumentID,
		validate func(*document.Document) error,
		mutate func(*document.Document)) (*document.Document, error)
}

// TransactionStore is the persistence port for extracted transactions.
// InsertBatch is all-or-nothing; a storage failure must not leave a partial
// transaction set behind.
type TransactionStore interface {
	InsertBatch(ctx context.Context, txns []document.Transaction) error
	ListByOwner(ctx context.Context, owner id.UserID) ([]document.Transaction, error)
	CountByDocument(ctx context.Context, docID id.DocumentID) (int, error)
}
