// Package document owns uploaded documents and the transactions extracted
// from them.
package document

import (
	"time"

	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
)

// Status is the document's position in the processing pipeline.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusExtracting Status = "extracting"
	StatusAnalyzing  Status = "analyzing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo encodes the forward-only state machine:
// uploaded → extracting → analyzing → completed, with failed reachable from
// extracting or analyzing only.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusUploaded:
		return next == StatusExtracting
	case StatusExtracting:
		return next == StatusAnalyzing || next == StatusFailed
	case StatusAnalyzing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Type classifies a document once extraction has run.
type Type string

const (
	TypeBankStatement Type = "bank_statement"
	TypeRentReceipt   Type = "rent_receipt"
	TypeUtilityBill   Type = "utility_bill"
	TypePayStub       Type = "pay_stub"
	TypeOther         Type = "other"
)

// ParseType maps an extractor classification onto the closed enum, falling
// back to TypeOther for anything unrecognized.
func ParseType(raw string) Type {
	switch Type(raw) {
	case TypeBankStatement, TypeRentReceipt, TypeUtilityBill, TypePayStub, TypeOther:
		return Type(raw)
	default:
		return TypeOther
	}
}

// Document is one uploaded file moving through the pipeline. It is created on
// upload, mutated only by the orchestrator through the store's guarded
// transition, and immutable once terminal.
type Document struct {
	ID           id.DocumentID
	OwnerID      id.UserID
	Filename     string
	ContentType  string
	SizeBytes    int64
	BlobKey      string
	Status       Status
	DocumentType Type
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// NewDocument builds a freshly uploaded document.
func NewDocument(owner id.UserID, filename, contentType string, sizeBytes int64, blobKey string, now time.Time) (*Document, error) {
	if filename == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "filename is required")
	}
	if sizeBytes <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file is empty")
	}
	return &Document{
		ID:          id.NewDocumentID(),
		OwnerID:     owner,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		BlobKey:     blobKey,
		Status:      StatusUploaded,
		CreatedAt:   now,
	}, nil
}

// CanTransition validates a requested move without applying it.
func (d *Document) CanTransition(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"illegal document transition %s -> %s", d.Status, next)
	}
	return nil
}

// ApplyTransition moves the document to next. Callers validate first; the
// store's Transition holds its lock across both steps.
func (d *Document) ApplyTransition(next Status, now time.Time) {
	d.Status = next
	if next.Terminal() {
		processed := now
		d.ProcessedAt = &processed
	}
}

// Category buckets a transaction for claim derivation.
type Category string

const (
	CategoryRent          Category = "rent"
	CategoryIncome        Category = "income"
	CategoryUtility       Category = "utility"
	CategoryBankStatement Category = "bank_statement"
	CategoryOther         Category = "other"
)

// ParseCategory maps extractor output onto the closed enum.
func ParseCategory(raw string) Category {
	switch Category(raw) {
	case CategoryRent, CategoryIncome, CategoryUtility, CategoryBankStatement, CategoryOther:
		return Category(raw)
	default:
		return CategoryOther
	}
}

// Transaction is one normalized record extracted from a document. Rows are
// bulk-inserted during extraction and never mutated afterward. Amounts are
// signed fixed-point cents.
type Transaction struct {
	ID          id.TransactionID
	DocumentID  id.DocumentID
	OwnerID     id.UserID
	Category    Category
	AmountCents int64
	Currency    string
	Date        *time.Time
	Payee       string
	Description string
	IsOnTime    *bool
	Confidence  float64
	CreatedAt   time.Time
}
