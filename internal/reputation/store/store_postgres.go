package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

// Postgres persists claims via pgx. The atomic set swap is a delete+insert in
// one transaction.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const claimColumns = `id, owner_id, claim_type, claim_text, claim_data, confidence,
	period_start, period_end, created_at`

func (s *Postgres) ListByOwner(ctx context.Context, owner id.UserID) ([]reputation.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE owner_id = $1 ORDER BY claim_type`
	rows, err := s.pool.Query(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	return scanClaims(rows)
}

func (s *Postgres) FindOwnedByIDs(ctx context.Context, owner id.UserID, ids []id.ClaimID) ([]reputation.Claim, error) {
	rawIDs := make([]string, len(ids))
	for i, claimID := range ids {
		rawIDs[i] = claimID.String()
	}
	query := `SELECT ` + claimColumns + ` FROM claims WHERE owner_id = $1 AND id = ANY($2)`
	rows, err := s.pool.Query(ctx, query, owner.String(), rawIDs)
	if err != nil {
		return nil, fmt.Errorf("find claims by ids: %w", err)
	}
	defer rows.Close()
	return scanClaims(rows)
}

func (s *Postgres) ReplaceForOwner(ctx context.Context, owner id.UserID, claims []reputation.Claim) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace claims: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM claims WHERE owner_id = $1`, owner.String()); err != nil {
		return fmt.Errorf("delete claims: %w", err)
	}

	const insert = `
INSERT INTO claims (id, owner_id, claim_type, claim_text, claim_data, confidence,
	period_start, period_end, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, claim := range claims {
		if _, err := tx.Exec(ctx, insert,
			claim.ID.String(), claim.OwnerID.String(), string(claim.Type), claim.Text,
			[]byte(claim.Data), claim.Confidence, claim.PeriodStart, claim.PeriodEnd,
			claim.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func scanClaims(rows pgx.Rows) ([]reputation.Claim, error) {
	var out []reputation.Claim
	for rows.Next() {
		var (
			claim    reputation.Claim
			rawID    string
			rawOwner string
			rawType  string
			rawData  []byte
		)
		if err := rows.Scan(&rawID, &rawOwner, &rawType, &claim.Text, &rawData,
			&claim.Confidence, &claim.PeriodStart, &claim.PeriodEnd, &claim.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claimID, err := id.ParseClaimID(rawID)
		if err != nil {
			return nil, err
		}
		ownerID, err := id.ParseUserID(rawOwner)
		if err != nil {
			return nil, err
		}
		claim.ID = claimID
		claim.OwnerID = ownerID
		claim.Type = reputation.ClaimType(rawType)
		claim.Data = rawData
		out = append(out, claim)
	}
	return out, rows.Err()
}
