// Package domain defines the typed identifiers shared across features.
// Distinct UUID wrapper types keep a DocumentID from ever being passed where
// a ClaimID is expected; the mistake fails at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "trustbridge/pkg/domain-errors"
)

type (
	// UserID identifies an account owner.
	UserID uuid.UUID
	// DocumentID identifies an uploaded document.
	DocumentID uuid.UUID
	// TransactionID identifies one extracted transaction.
	TransactionID uuid.UUID
	// ClaimID identifies a derived reputation claim.
	ClaimID uuid.UUID
	// CredentialID identifies an issued shareable credential.
	CredentialID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id DocumentID) String() string    { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }
func (id ClaimID) String() string       { return uuid.UUID(id).String() }
func (id CredentialID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewDocumentID() DocumentID       { return DocumentID(uuid.New()) }
func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }
func NewClaimID() ClaimID             { return ClaimID(uuid.New()) }
func NewCredentialID() CredentialID   { return CredentialID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Parsing happens at trust boundaries only.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

func ParseDocumentID(raw string) (DocumentID, error) {
	parsed, err := parseUUID(raw, "document id")
	return DocumentID(parsed), err
}

func ParseTransactionID(raw string) (TransactionID, error) {
	parsed, err := parseUUID(raw, "transaction id")
	return TransactionID(parsed), err
}

func ParseClaimID(raw string) (ClaimID, error) {
	parsed, err := parseUUID(raw, "claim id")
	return ClaimID(parsed), err
}

func ParseCredentialID(raw string) (CredentialID, error) {
	parsed, err := parseUUID(raw, "credential id")
	return CredentialID(parsed), err
}
