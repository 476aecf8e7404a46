// Package extraction is the boundary to the document extraction service:
// raw bytes in, classified type plus normalized transactions out. The
// extractor's internals are opaque; only this contract matters.
package extraction

import (
	"context"
	"fmt"
)

// RawTransaction is one transaction as the extractor reports it. Amounts are
// signed fixed-point cents; dates are "YYYY-MM-DD" or empty.
type RawTransaction struct {
	Category    string  `json:"category"`
	AmountCents int64   `json:"amount_cents"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	Payee       string  `json:"payee"`
	Description string  `json:"description"`
	IsOnTime    *bool   `json:"is_on_time"`
	Confidence  float64 `json:"confidence"`
}

// Result is a successful extraction.
type Result struct {
	DocumentType string           `json:"document_type"`
	Transactions []RawTransaction `json:"transactions"`
}

// Gateway submits document bytes for classification and extraction. The call
// must respect ctx deadlines; callers bound it.
type Gateway interface {
	Submit(ctx context.Context, payload []byte, contentType string) (Result, error)
}

// ExtractionError is a transient failure (network, extractor overload,
// deadline). The document fails, but re-uploading may succeed.
type ExtractionError struct {
	Message string
	cause   error
}

func (e *ExtractionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.cause)
	}
	return "extraction failed: " + e.Message
}

func (e *ExtractionError) Unwrap() error { return e.cause }

// ClassificationError is a permanent failure: the extractor understood the
// request and rejected the document.
type ClassificationError struct {
	Message string
}

func (e *ClassificationError) Error() string {
	return "classification failed: " + e.Message
}
