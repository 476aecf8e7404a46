package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustbridge/internal/document"
	id "trustbridge/pkg/domain"
)

// PostgresTransactions persists extracted transactions via pgx.
type PostgresTransactions struct {
	pool *pgxpool.Pool
}

func NewPostgresTransactions(pool *pgxpool.Pool) *PostgresTransactions {
	return &PostgresTransactions{pool: pool}
}

// InsertBatch writes the whole batch in one transaction: either every row
// lands or none does.
func (s *PostgresTransactions) InsertBatch(ctx context.Context, txns []document.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
INSERT INTO transactions (id, document_id, owner_id, category, amount_cents, currency,
	transaction_date, payee, description, is_on_time, confidence, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	batch := &pgx.Batch{}
	for _, txn := range txns {
		batch.Queue(query,
			txn.ID.String(), txn.DocumentID.String(), txn.OwnerID.String(),
			string(txn.Category), txn.AmountCents, txn.Currency, txn.Date,
			nullableString(txn.Payee), nullableString(txn.Description),
			txn.IsOnTime, txn.Confidence, txn.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresTransactions) ListByOwner(ctx context.Context, owner id.UserID) ([]document.Transaction, error) {
	const query = `
SELECT id, document_id, owner_id, category, amount_cents, currency,
	transaction_date, payee, description, is_on_time, confidence, created_at
FROM transactions
WHERE owner_id = $1
ORDER BY transaction_date NULLS LAST, created_at`

	rows, err := s.pool.Query(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []document.Transaction
	for rows.Next() {
		var (
			txn         document.Transaction
			rawID       string
			rawDocID    string
			rawOwner    string
			rawCategory string
			payee       *string
			description *string
		)
		if err := rows.Scan(&rawID, &rawDocID, &rawOwner, &rawCategory, &txn.AmountCents,
			&txn.Currency, &txn.Date, &payee, &description, &txn.IsOnTime,
			&txn.Confidence, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		docID, err := id.ParseDocumentID(rawDocID)
		if err != nil {
			return nil, err
		}
		ownerID, err := id.ParseUserID(rawOwner)
		if err != nil {
			return nil, err
		}
		txnID, err := id.ParseTransactionID(rawID)
		if err != nil {
			return nil, err
		}
		txn.ID = txnID
		txn.DocumentID = docID
		txn.OwnerID = ownerID
		txn.Category = document.Category(rawCategory)
		if payee != nil {
			txn.Payee = *payee
		}
		if description != nil {
			txn.Description = *description
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (s *PostgresTransactions) CountByDocument(ctx context.Context, docID id.DocumentID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE document_id = $1`, docID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}
