// Package service implements document upload and read paths. Processing
// itself belongs to the pipeline; this layer only accepts files and answers
// status questions.
package service

import (
	"context"
	"errors"
	"log/slog"

	"trustbridge/internal/blob"
	"trustbridge/internal/document"
	"trustbridge/internal/document/store"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/platform/sentinel"
	"trustbridge/pkg/requestcontext"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 10 << 20

// Enqueuer hands an accepted document to the processing workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, docID id.DocumentID) error
}

type Service struct {
	docs   store.DocumentStore
	txns   store.TransactionStore
	blobs  blob.Store
	queue  Enqueuer
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(docs store.DocumentStore, txns store.TransactionStore, blobs blob.Store, queue Enqueuer, opts ...Option) *Service {
	svc := &Service{
		docs:   docs,
		txns:   txns,
		blobs:  blobs,
		queue:  queue,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Upload stores the file, records the document in `uploaded`, and enqueues it
// for processing. The document row is persisted before the enqueue so a full
// queue loses no data; the caller is told to retry.
func (s *Service) Upload(ctx context.Context, owner id.UserID, filename, contentType string, data []byte) (*document.Document, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file is empty")
	}
	if len(data) > MaxUploadBytes {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "file exceeds the %d byte limit", MaxUploadBytes)
	}

	blobKey, err := s.blobs.Put(ctx, data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store file")
	}

	doc, err := document.NewDocument(owner, filename, contentType, int64(len(data)), blobKey, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
	}

	if err := s.queue.Enqueue(ctx, doc.ID); err != nil {
		// The row stays in `uploaded`; re-uploading or a drain restart
		// picks it back up.
		s.logger.WarnContext(ctx, "document accepted but not enqueued",
			"document_id", doc.ID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "document uploaded",
		"document_id", doc.ID,
		"owner_id", owner,
		"filename", filename,
		"size_bytes", doc.SizeBytes,
		"request_id", requestcontext.RequestID(ctx),
	)
	return doc, nil
}

// StatusView is a document plus how many transactions extraction produced.
type StatusView struct {
	Document         *document.Document
	TransactionCount int
}

// Status returns one of the owner's documents. A document belonging to
// someone else is indistinguishable from a missing one.
func (s *Service) Status(ctx context.Context, owner id.UserID, docID id.DocumentID) (StatusView, error) {
	doc, err := s.docs.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StatusView{}, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return StatusView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	if doc.OwnerID != owner {
		return StatusView{}, dErrors.New(dErrors.CodeNotFound, "document not found")
	}

	count, err := s.txns.CountByDocument(ctx, docID)
	if err != nil {
		return StatusView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count transactions")
	}
	return StatusView{Document: doc, TransactionCount: count}, nil
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, owner id.UserID) ([]*document.Document, error) {
	docs, err := s.docs.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}
