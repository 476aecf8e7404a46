package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustbridge/internal/document"
	id "trustbridge/pkg/domain"
	"trustbridge/pkg/platform/sentinel"
)

// Postgres persists documents via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const documentColumns = `id, owner_id, filename, content_type, size_bytes, blob_key,
	status, document_type, error_message, created_at, processed_at`

func (s *Postgres) Create(ctx context.Context, doc *document.Document) error {
	const query = `
INSERT INTO documents (id, owner_id, filename, content_type, size_bytes, blob_key,
	status, document_type, error_message, created_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		doc.ID.String(), doc.OwnerID.String(), doc.Filename, doc.ContentType,
		doc.SizeBytes, doc.BlobKey, string(doc.Status), nullableString(string(doc.DocumentType)),
		nullableString(doc.ErrorMessage), doc.CreatedAt, doc.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, docID id.DocumentID) (*document.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, docID.String())
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return doc, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.UserID) ([]*document.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Transition locks the row with FOR UPDATE for the validate/mutate pair, so
// the state machine guard and the write are one atomic step.
func (s *Postgres) Transition(ctx context.Context, docID id.DocumentID,
	validate func(*document.Document) error,
	mutate func(*document.Document)) (*document.Document, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	doc, err := scanDocument(tx.QueryRow(ctx, query, docID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock document: %w", err)
	}

	if err := validate(doc); err != nil {
		return nil, err
	}
	mutate(doc)

	const update = `
UPDATE documents
SET status = $2, document_type = $3, error_message = $4, processed_at = $5
WHERE id = $1`
	if _, err := tx.Exec(ctx, update,
		doc.ID.String(), string(doc.Status), nullableString(string(doc.DocumentType)),
		nullableString(doc.ErrorMessage), doc.ProcessedAt,
	); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return doc, nil
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var (
		doc          document.Document
		rawID        string
		rawOwner     string
		rawStatus    string
		docType      *string
		errorMessage *string
	)
	err := row.Scan(&rawID, &rawOwner, &doc.Filename, &doc.ContentType, &doc.SizeBytes,
		&doc.BlobKey, &rawStatus, &docType, &errorMessage, &doc.CreatedAt, &doc.ProcessedAt)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseDocumentID(rawID)
	if err != nil {
		return nil, err
	}
	parsedOwner, err := id.ParseUserID(rawOwner)
	if err != nil {
		return nil, err
	}
	doc.ID = parsedID
	doc.OwnerID = parsedOwner
	doc.Status = document.Status(rawStatus)
	if docType != nil {
		doc.DocumentType = document.Type(*docType)
	}
	if errorMessage != nil {
		doc.ErrorMessage = *errorMessage
	}
	return &doc, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
