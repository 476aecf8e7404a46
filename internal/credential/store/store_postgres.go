package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustbridge/internal/credential"
	id "trustbridge/pkg/domain"
	"trustbridge/pkg/platform/sentinel"
)

// Postgres persists credentials via pgx. The assertions snapshot is stored as
// jsonb; a unique index on token surfaces collisions as conflicts.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const credentialColumns = `id, owner_id, holder_name, token, claim_ids, assertions,
	signed_jwt, issued_at, expires_at, is_revoked, view_count, created_at`

func (s *Postgres) Create(ctx context.Context, cred credential.Credential) error {
	assertions, err := json.Marshal(cred.Assertions)
	if err != nil {
		return fmt.Errorf("encode assertions: %w", err)
	}
	claimIDs := make([]string, len(cred.ClaimIDs))
	for i, claimID := range cred.ClaimIDs {
		claimIDs[i] = claimID.String()
	}

	const query = `
INSERT INTO credentials (id, owner_id, holder_name, token, claim_ids, assertions,
	signed_jwt, issued_at, expires_at, is_revoked, view_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = s.pool.Exec(ctx, query,
		cred.ID.String(), cred.OwnerID.String(), cred.HolderName, cred.Token,
		claimIDs, assertions, cred.SignedJWT, cred.IssuedAt, cred.ExpiresAt,
		cred.IsRevoked, cred.ViewCount, cred.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *Postgres) FindByToken(ctx context.Context, token string) (credential.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE token = $1`
	cred, err := scanCredential(s.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return credential.Credential{}, sentinel.ErrNotFound
		}
		return credential.Credential{}, fmt.Errorf("find credential by token: %w", err)
	}
	return cred, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.UserID) ([]credential.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials
		WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []credential.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("list credentials: %w", err)
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

func (s *Postgres) Revoke(ctx context.Context, owner id.UserID, credID id.CredentialID) error {
	const query = `UPDATE credentials SET is_revoked = TRUE WHERE id = $1 AND owner_id = $2`
	tag, err := s.pool.Exec(ctx, query, credID.String(), owner.String())
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) IncrementViewCount(ctx context.Context, credID id.CredentialID) error {
	const query = `UPDATE credentials SET view_count = view_count + 1 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, credID.String())
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (credential.Credential, error) {
	var (
		cred          credential.Credential
		rawID         string
		rawOwner      string
		rawClaimIDs   []string
		rawAssertions []byte
	)
	if err := row.Scan(&rawID, &rawOwner, &cred.HolderName, &cred.Token, &rawClaimIDs,
		&rawAssertions, &cred.SignedJWT, &cred.IssuedAt, &cred.ExpiresAt,
		&cred.IsRevoked, &cred.ViewCount, &cred.CreatedAt); err != nil {
		return credential.Credential{}, err
	}

	credID, err := id.ParseCredentialID(rawID)
	if err != nil {
		return credential.Credential{}, err
	}
	ownerID, err := id.ParseUserID(rawOwner)
	if err != nil {
		return credential.Credential{}, err
	}
	claimIDs := make([]id.ClaimID, len(rawClaimIDs))
	for i, raw := range rawClaimIDs {
		claimIDs[i], err = id.ParseClaimID(raw)
		if err != nil {
			return credential.Credential{}, err
		}
	}
	if err := json.Unmarshal(rawAssertions, &cred.Assertions); err != nil {
		return credential.Credential{}, fmt.Errorf("decode assertions: %w", err)
	}

	cred.ID = credID
	cred.OwnerID = ownerID
	cred.ClaimIDs = claimIDs
	return cred, nil
}
