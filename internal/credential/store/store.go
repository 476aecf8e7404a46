// Package store persists issued credentials.
package store

import (
	"context"

	"trustbridge/internal/credential"
	id "trustbridge/pkg/domain"
)

// Store is the credential persistence boundary. Rows are append-only except
// for the revocation flag and the verifier's view counter; implementations
// return sentinel errors for missing rows and token collisions.
type Store interface {
	Create(ctx context.Context, cred credential.Credential) error
	FindByToken(ctx context.Context, token string) (credential.Credential, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]credential.Credential, error)

	// Revoke marks an owner's credential revoked. Revoking an already
	// revoked credential is a no-op; a credential the owner does not hold
	// is not found.
	Revoke(ctx context.Context, owner id.UserID, credID id.CredentialID) error

	// IncrementViewCount atomically bumps the verifier-facing view counter.
	IncrementViewCount(ctx context.Context, credID id.CredentialID) error
}
