// Package store persists reputation claims.
package store

import (
	"context"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

// ClaimStore is the persistence port for claims.
//
// ReplaceForOwner swaps the owner's whole claim set atomically: concurrent
// readers see either the complete old set or the complete new set, never a
// mixture.
type ClaimStore interface {
	ListByOwner(ctx context.Context, owner id.UserID) ([]reputation.Claim, error)
	FindOwnedByIDs(ctx context.Context, owner id.UserID, ids []id.ClaimID) ([]reputation.Claim, error)
	ReplaceForOwner(ctx context.Context, owner id.UserID, claims []reputation.Claim) error
}
