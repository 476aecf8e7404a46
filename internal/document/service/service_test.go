package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustbridge/internal/blob"
	"trustbridge/internal/document"
	"trustbridge/internal/document/store"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
)

type recordingQueue struct {
	enqueued []id.DocumentID
	err      error
}

func (q *recordingQueue) Enqueue(_ context.Context, docID id.DocumentID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, docID)
	return nil
}

type fixture struct {
	svc   *Service
	docs  *store.InMemory
	txns  *store.InMemoryTransactions
	blobs *blob.Memory
	queue *recordingQueue
	owner id.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:  store.NewInMemory(),
		txns:  store.NewInMemoryTransactions(),
		blobs: blob.NewMemory(),
		queue: &recordingQueue{},
		owner: id.NewUserID(),
	}
	f.svc = New(f.docs, f.txns, f.blobs, f.queue)
	return f
}

func TestUploadAcceptsAndEnqueues(t *testing.T) {
	f := newFixture(t)
	payload := []byte("%PDF-1.7 statement")

	doc, err := f.svc.Upload(context.Background(), f.owner, "statement.pdf", "application/pdf", payload)
	require.NoError(t, err)
	assert.Equal(t, document.StatusUploaded, doc.Status)
	assert.Equal(t, int64(len(payload)), doc.SizeBytes)

	stored, err := f.blobs.Get(context.Background(), doc.BlobKey)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, stored))

	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, doc.ID, f.queue.enqueued[0])
}

func TestUploadRejectsEmptyAndOversizedFiles(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), f.owner, "statement.pdf", "application/pdf", nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = f.svc.Upload(context.Background(), f.owner, "huge.pdf", "application/pdf", make([]byte, MaxUploadBytes+1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.Empty(t, f.queue.enqueued)
}

func TestUploadSurfacesFullQueue(t *testing.T) {
	f := newFixture(t)
	f.queue.err = dErrors.New(dErrors.CodeUnavailable, "processing queue is full, try again later")

	_, err := f.svc.Upload(context.Background(), f.owner, "statement.pdf", "application/pdf", []byte("data"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	// The document row survives for later reprocessing.
	docs, err := f.docs.ListByOwner(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStatusScopesToOwner(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Upload(context.Background(), f.owner, "statement.pdf", "application/pdf", []byte("data"))
	require.NoError(t, err)

	view, err := f.svc.Status(context.Background(), f.owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, view.Document.ID)
	assert.Zero(t, view.TransactionCount)

	// Foreign documents read as missing.
	_, err = f.svc.Status(context.Background(), id.NewUserID(), doc.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = f.svc.Status(context.Background(), f.owner, id.NewDocumentID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestStatusIncludesTransactionCount(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Upload(context.Background(), f.owner, "statement.pdf", "application/pdf", []byte("data"))
	require.NoError(t, err)

	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.txns.InsertBatch(context.Background(), []document.Transaction{{
		ID:         id.NewTransactionID(),
		DocumentID: doc.ID,
		OwnerID:    f.owner,
		Category:   document.CategoryRent,
		Date:       &date,
	}}))

	view, err := f.svc.Status(context.Background(), f.owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TransactionCount)
}

func TestListReturnsOwnDocuments(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), f.owner, "a.pdf", "application/pdf", []byte("a"))
	require.NoError(t, err)
	_, err = f.svc.Upload(context.Background(), id.NewUserID(), "b.pdf", "application/pdf", []byte("b"))
	require.NoError(t, err)

	docs, err := f.svc.List(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
