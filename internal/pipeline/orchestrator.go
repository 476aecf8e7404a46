// Package pipeline drives uploaded documents through extraction, analysis,
// and claim regeneration.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"trustbridge/internal/blob"
	"trustbridge/internal/document"
	docstore "trustbridge/internal/document/store"
	"trustbridge/internal/extraction"
	"trustbridge/internal/platform/metrics"
	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
)

// Recalculator regenerates an owner's claim set. The pipeline uses the
// waiting variant: a document that finished extraction must never lose its
// regeneration to a concurrent caller.
type Recalculator interface {
	Recalculate(ctx context.Context, owner id.UserID) ([]reputation.Claim, error)
}

// Orchestrator owns the background workers that process documents. Work
// enters through a bounded queue; each document is processed at most once at
// a time regardless of duplicate enqueues.
type Orchestrator struct {
	docs    docstore.DocumentStore
	txns    docstore.TransactionStore
	blobs   blob.Store
	gateway extraction.Gateway
	recalc  Recalculator

	queue             chan id.DocumentID
	group             *errgroup.Group
	inflight          singleflight.Group
	workers           int
	extractionTimeout time.Duration
	logger            *slog.Logger
	metrics           *metrics.Metrics
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.queue = make(chan id.DocumentID, n)
		}
	}
}

func WithExtractionTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.extractionTimeout = d }
}

func New(docs docstore.DocumentStore, txns docstore.TransactionStore, blobs blob.Store,
	gateway extraction.Gateway, recalc Recalculator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		docs:              docs,
		txns:              txns,
		blobs:             blobs,
		gateway:           gateway,
		recalc:            recalc,
		queue:             make(chan id.DocumentID, 64),
		workers:           4,
		extractionTimeout: 30 * time.Second,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches the worker pool. Workers drain the queue until Stop closes
// it or ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	o.group = group
	for i := 0; i < o.workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				case docID, ok := <-o.queue:
					if !ok {
						return nil
					}
					o.Process(groupCtx, docID)
				}
			}
		})
	}
}

// Stop closes the queue and waits for in-flight documents to finish.
func (o *Orchestrator) Stop() {
	close(o.queue)
	if o.group != nil {
		_ = o.group.Wait()
	}
}

// Enqueue hands a document to the workers without blocking. A full queue is
// reported as unavailable so the upload endpoint can tell the caller to retry.
func (o *Orchestrator) Enqueue(_ context.Context, docID id.DocumentID) error {
	select {
	case o.queue <- docID:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "processing queue is full, try again later")
	}
}

// Process runs the pipeline for one document. Concurrent calls for the same
// document collapse into a single run.
func (o *Orchestrator) Process(ctx context.Context, docID id.DocumentID) {
	_, _, _ = o.inflight.Do(docID.String(), func() (any, error) {
		o.processOne(ctx, docID)
		return nil, nil
	})
}

func (o *Orchestrator) processOne(ctx context.Context, docID id.DocumentID) {
	started := time.Now()

	doc, err := o.docs.FindByID(ctx, docID)
	if err != nil {
		o.logger.ErrorContext(ctx, "pipeline could not load document",
			"document_id", docID, "error", err)
		return
	}
	if doc.Status != document.StatusUploaded {
		o.logger.InfoContext(ctx, "pipeline skipping document not in uploaded state",
			"document_id", docID, "status", doc.Status)
		return
	}

	if _, err := o.transition(ctx, docID, document.StatusExtracting, nil); err != nil {
		o.logger.ErrorContext(ctx, "pipeline transition failed",
			"document_id", docID, "target", document.StatusExtracting, "error", err)
		return
	}

	payload, err := o.blobs.Get(ctx, doc.BlobKey)
	if err != nil {
		o.fail(ctx, docID, "stored file is unavailable", err)
		return
	}

	result, err := o.extract(ctx, payload, doc.ContentType)
	if err != nil {
		var classification *extraction.ClassificationError
		if errors.As(err, &classification) {
			o.fail(ctx, docID, classification.Message, err)
		} else {
			o.fail(ctx, docID, "extraction failed, the document can be re-uploaded", err)
		}
		return
	}

	txns := o.buildTransactions(doc, result, started.UTC())
	if err := o.txns.InsertBatch(ctx, txns); err != nil {
		o.fail(ctx, docID, "failed to store extracted transactions", err)
		return
	}

	docType := document.ParseType(result.DocumentType)
	if _, err := o.transition(ctx, docID, document.StatusAnalyzing, func(d *document.Document) {
		d.DocumentType = docType
	}); err != nil {
		o.logger.ErrorContext(ctx, "pipeline transition failed",
			"document_id", docID, "target", document.StatusAnalyzing, "error", err)
		return
	}

	if _, err := o.recalc.Recalculate(ctx, doc.OwnerID); err != nil {
		o.fail(ctx, docID, "claim regeneration failed", err)
		return
	}

	if _, err := o.transition(ctx, docID, document.StatusCompleted, nil); err != nil {
		o.logger.ErrorContext(ctx, "pipeline transition failed",
			"document_id", docID, "target", document.StatusCompleted, "error", err)
		return
	}

	o.metrics.IncDocumentProcessed(string(document.StatusCompleted))
	o.metrics.ObserveProcessingDuration(time.Since(started).Seconds())
	o.logger.InfoContext(ctx, "document processed",
		"document_id", docID,
		"owner_id", doc.OwnerID,
		"document_type", docType,
		"transaction_count", len(txns),
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

func (o *Orchestrator) extract(ctx context.Context, payload []byte, contentType string) (extraction.Result, error) {
	if o.extractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.extractionTimeout)
		defer cancel()
	}
	return o.gateway.Submit(ctx, payload, contentType)
}

// buildTransactions normalizes extractor rows. Unparseable dates are kept as
// undated rows rather than dropped; the claim generator decides what undated
// data may feed.
func (o *Orchestrator) buildTransactions(doc *document.Document, result extraction.Result, now time.Time) []document.Transaction {
	txns := make([]document.Transaction, 0, len(result.Transactions))
	for _, raw := range result.Transactions {
		txn := document.Transaction{
			ID:          id.NewTransactionID(),
			DocumentID:  doc.ID,
			OwnerID:     doc.OwnerID,
			Category:    document.ParseCategory(raw.Category),
			AmountCents: raw.AmountCents,
			Currency:    raw.Currency,
			Payee:       raw.Payee,
			Description: raw.Description,
			IsOnTime:    raw.IsOnTime,
			Confidence:  raw.Confidence,
			CreatedAt:   now,
		}
		if raw.Date != "" {
			if parsed, err := time.Parse("2006-01-02", raw.Date); err == nil {
				txn.Date = &parsed
			}
		}
		txns = append(txns, txn)
	}
	return txns
}

func (o *Orchestrator) transition(ctx context.Context, docID id.DocumentID, next document.Status,
	also func(*document.Document)) (*document.Document, error) {
	return o.docs.Transition(ctx, docID,
		func(d *document.Document) error { return d.CanTransition(next) },
		func(d *document.Document) {
			if also != nil {
				also(d)
			}
			d.ApplyTransition(next, time.Now().UTC())
		})
}

func (o *Orchestrator) fail(ctx context.Context, docID id.DocumentID, message string, cause error) {
	if _, err := o.transition(ctx, docID, document.StatusFailed, func(d *document.Document) {
		d.ErrorMessage = message
	}); err != nil {
		o.logger.ErrorContext(ctx, "pipeline could not mark document failed",
			"document_id", docID, "error", err)
		return
	}
	o.metrics.IncDocumentProcessed(string(document.StatusFailed))
	o.logger.WarnContext(ctx, "document processing failed",
		"document_id", docID,
		"reason", message,
		"error", cause,
	)
}
