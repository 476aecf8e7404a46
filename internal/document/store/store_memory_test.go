package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustbridge/internal/document"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/platform/sentinel"
)

type DocumentStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
	owner id.UserID
}

func (s *DocumentStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.owner = id.NewUserID()
}

func (s *DocumentStoreSuite) newDoc(createdAt time.Time) *document.Document {
	doc, err := document.NewDocument(s.owner, "statement.pdf", "application/pdf", 1024, "blob-key", createdAt)
	s.Require().NoError(err)
	return doc
}

func (s *DocumentStoreSuite) TestCreateAndFind() {
	doc := s.newDoc(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, doc))

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.ID, found.ID)
	s.Equal(document.StatusUploaded, found.Status)

	s.ErrorIs(s.store.Create(s.ctx, doc), sentinel.ErrConflict)
}

func (s *DocumentStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewDocumentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DocumentStoreSuite) TestListByOwnerNewestFirst() {
	older := s.newDoc(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := s.newDoc(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	foreign := s.newDoc(time.Now().UTC())
	foreign.OwnerID = id.NewUserID()
	s.Require().NoError(s.store.Create(s.ctx, foreign))

	docs, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(newer.ID, docs[0].ID)
	s.Equal(older.ID, docs[1].ID)
}

func (s *DocumentStoreSuite) TestTransitionAppliesMutation() {
	doc := s.newDoc(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, doc))

	updated, err := s.store.Transition(s.ctx, doc.ID,
		func(d *document.Document) error { return d.CanTransition(document.StatusExtracting) },
		func(d *document.Document) { d.ApplyTransition(document.StatusExtracting, time.Now().UTC()) },
	)
	s.Require().NoError(err)
	s.Equal(document.StatusExtracting, updated.Status)

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(document.StatusExtracting, found.Status)
}

func (s *DocumentStoreSuite) TestTransitionValidateFailureLeavesStateUntouched() {
	doc := s.newDoc(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, doc))

	_, err := s.store.Transition(s.ctx, doc.ID,
		func(d *document.Document) error { return d.CanTransition(document.StatusCompleted) },
		func(d *document.Document) { d.ApplyTransition(document.StatusCompleted, time.Now().UTC()) },
	)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(document.StatusUploaded, found.Status)
}

func (s *DocumentStoreSuite) TestTransitionMissingDocument() {
	_, err := s.store.Transition(s.ctx, id.NewDocumentID(),
		func(*document.Document) error { return nil },
		func(*document.Document) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

type TransactionStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryTransactions
	owner id.UserID
	docID id.DocumentID
}

func (s *TransactionStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryTransactions()
	s.owner = id.NewUserID()
	s.docID = id.NewDocumentID()
}

func (s *TransactionStoreSuite) txnOn(date *time.Time) document.Transaction {
	return document.Transaction{
		ID:          id.NewTransactionID(),
		DocumentID:  s.docID,
		OwnerID:     s.owner,
		Category:    document.CategoryRent,
		AmountCents: -100_000,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *TransactionStoreSuite) TestInsertAndCount() {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.InsertBatch(s.ctx, []document.Transaction{s.txnOn(&jan), s.txnOn(nil)}))

	count, err := s.store.CountByDocument(s.ctx, s.docID)
	s.Require().NoError(err)
	s.Equal(2, count)

	count, err = s.store.CountByDocument(s.ctx, id.NewDocumentID())
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *TransactionStoreSuite) TestListByOwnerOrdersDatesFirst() {
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.InsertBatch(s.ctx, []document.Transaction{
		s.txnOn(nil), s.txnOn(&feb), s.txnOn(&jan),
	}))

	txns, err := s.store.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(txns, 3)
	s.Equal(jan, *txns[0].Date)
	s.Equal(feb, *txns[1].Date)
	s.Nil(txns[2].Date)
}

func (s *TransactionStoreSuite) TestListByOwnerScopesToOwner() {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.InsertBatch(s.ctx, []document.Transaction{s.txnOn(&jan)}))

	txns, err := s.store.ListByOwner(s.ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Empty(txns)
}

func TestTransactionStoreSuite(t *testing.T) {
	suite.Run(t, new(TransactionStoreSuite))
}
