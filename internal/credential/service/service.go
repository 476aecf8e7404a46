// Package service implements credential issuance, revocation, and verification.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trustbridge/internal/credential"
	"trustbridge/internal/credential/signing"
	"trustbridge/internal/credential/store"
	"trustbridge/internal/platform/metrics"
	repstore "trustbridge/internal/reputation/store"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/platform/sentinel"
	"trustbridge/pkg/requestcontext"
)

// Service issues signed credentials over an owner's claims and verifies
// shared tokens for third parties.
type Service struct {
	creds  store.Store
	claims repstore.ClaimStore
	signer *signing.Context

	issuer          string
	frontendBaseURL string
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithFrontendBaseURL(base string) Option {
	return func(s *Service) { s.frontendBaseURL = base }
}

func New(creds store.Store, claims repstore.ClaimStore, signer *signing.Context, issuer string, opts ...Option) *Service {
	svc := &Service{
		creds:  creds,
		claims: claims,
		signer: signer,
		issuer: issuer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Issued is a freshly generated credential plus the URL a holder shares.
type Issued struct {
	Credential credential.Credential
	ShareURL   string
}

// Generate signs the owner's selected claims into a shareable credential. All
// validation happens before anything is written: bad input and foreign or
// missing claims leave no row behind.
func (s *Service) Generate(ctx context.Context, owner id.UserID, claimIDs []id.ClaimID, expiresHours int) (Issued, error) {
	if len(claimIDs) == 0 {
		return Issued{}, dErrors.New(dErrors.CodeInvalidInput, "at least one claim is required")
	}
	if expiresHours < credential.MinExpiresHours || expiresHours > credential.MaxExpiresHours {
		return Issued{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"expires_hours must be between %d and %d", credential.MinExpiresHours, credential.MaxExpiresHours)
	}
	unique := make(map[id.ClaimID]bool, len(claimIDs))
	for _, claimID := range claimIDs {
		unique[claimID] = true
	}

	owned, err := s.claims.FindOwnedByIDs(ctx, owner, claimIDs)
	if err != nil {
		return Issued{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claims")
	}
	if len(owned) != len(unique) {
		return Issued{}, dErrors.New(dErrors.CodeNotFound, "one or more claims not found")
	}
	// Persist the resolved set, not the request list: a repeated claim id in
	// the request must not store duplicates.
	ownedIDs := make([]id.ClaimID, len(owned))
	for i, claim := range owned {
		ownedIDs[i] = claim.ID
	}

	token, err := credential.MintToken()
	if err != nil {
		return Issued{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token")
	}

	// JWT timestamps carry whole seconds; truncate so the stored row and the
	// signed payload agree exactly at verification time.
	now := requestcontext.Now(ctx).UTC().Truncate(time.Second)
	cred := credential.Credential{
		ID:         id.NewCredentialID(),
		OwnerID:    owner,
		HolderName: requestcontext.UserName(ctx),
		Token:      token,
		ClaimIDs:   ownedIDs,
		Assertions: credential.AssertionsFromClaims(owned),
		IssuedAt:   now,
		ExpiresAt:  now.Add(time.Duration(expiresHours) * time.Hour),
		CreatedAt:  now,
	}

	signedJWT, err := s.signer.Sign(s.payloadFor(cred))
	if err != nil {
		return Issued{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}
	cred.SignedJWT = signedJWT

	if err := s.creds.Create(ctx, cred); err != nil {
		return Issued{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}

	s.metrics.IncCredentialIssued()
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.ID,
		"owner_id", owner,
		"claim_count", len(cred.Assertions),
		"expires_at", cred.ExpiresAt,
		"request_id", requestcontext.RequestID(ctx),
	)
	return Issued{Credential: cred, ShareURL: s.shareURL(token)}, nil
}

// List returns the owner's issued credentials, newest first.
func (s *Service) List(ctx context.Context, owner id.UserID) ([]credential.Credential, error) {
	creds, err := s.creds.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// Revoke marks an owner's credential revoked. Revocation is permanent and
// idempotent.
func (s *Service) Revoke(ctx context.Context, owner id.UserID, credID id.CredentialID) error {
	if err := s.creds.Revoke(ctx, owner, credID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}
	s.logger.InfoContext(ctx, "credential revoked",
		"credential_id", credID,
		"owner_id", owner,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Checks are the individual verification outcomes a verifier sees.
type Checks struct {
	Signature  bool `json:"signature"`
	NotExpired bool `json:"not_expired"`
	NotRevoked bool `json:"not_revoked"`
}

// VerifyResult is the public verification response. An unknown token yields
// the zero result: same shape, everything false, nothing disclosed.
type VerifyResult struct {
	Valid      bool                   `json:"valid"`
	Checks     Checks                 `json:"checks"`
	Issuer     string                 `json:"issuer,omitempty"`
	HolderName string                 `json:"holder_name,omitempty"`
	IssuedAt   *time.Time             `json:"issued_at,omitempty"`
	ExpiresAt  *time.Time             `json:"expires_at,omitempty"`
	Claims     []credential.Assertion `json:"claims,omitempty"`
}

// Verify resolves a share token and checks signature, expiry, and revocation.
// Claim contents are disclosed only when the signature holds: a tampered
// snapshot must not leak through the verification endpoint.
func (s *Service) Verify(ctx context.Context, token string) (VerifyResult, error) {
	cred, err := s.creds.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncCredentialVerification("unknown")
			return VerifyResult{}, nil
		}
		return VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve credential")
	}

	// Every resolved verification counts as a view, valid or not.
	if err := s.creds.IncrementViewCount(ctx, cred.ID); err != nil {
		s.logger.WarnContext(ctx, "view count increment failed",
			"credential_id", cred.ID, "error", err)
	}

	sigOK := s.signatureHolds(ctx, cred)
	now := requestcontext.Now(ctx)
	checks := Checks{
		Signature:  sigOK,
		NotExpired: !now.After(cred.ExpiresAt),
		NotRevoked: !cred.IsRevoked,
	}
	result := VerifyResult{
		Valid:  checks.Signature && checks.NotExpired && checks.NotRevoked,
		Checks: checks,
	}
	if sigOK {
		issuedAt, expiresAt := cred.IssuedAt, cred.ExpiresAt
		result.Issuer = s.issuer
		result.HolderName = cred.HolderName
		result.IssuedAt = &issuedAt
		result.ExpiresAt = &expiresAt
		result.Claims = cred.Assertions
	}

	s.metrics.IncCredentialVerification(verificationOutcome(result))
	return result, nil
}

// signatureHolds re-derives the canonical payload from the stored row and
// requires the signed JWT to both verify and carry that exact payload. A row
// edited after issuance fails the comparison even though the JWT itself still
// verifies.
func (s *Service) signatureHolds(ctx context.Context, cred credential.Credential) bool {
	parsed, err := s.signer.Verify(cred.SignedJWT)
	if err != nil {
		s.reportMismatch(ctx, cred, "signature verification failed", err)
		return false
	}
	if !payloadsEqual(*parsed, s.payloadFor(cred)) {
		s.reportMismatch(ctx, cred, "stored credential diverges from signed payload", nil)
		return false
	}
	return true
}

func (s *Service) reportMismatch(ctx context.Context, cred credential.Credential, reason string, err error) {
	s.metrics.IncSignatureMismatch()
	s.logger.WarnContext(ctx, "credential signature mismatch",
		"event", "security",
		"credential_id", cred.ID,
		"owner_id", cred.OwnerID,
		"reason", reason,
		"error", err,
	)
}

func (s *Service) payloadFor(cred credential.Credential) signing.Payload {
	return signing.Payload{
		HolderID:   cred.OwnerID.String(),
		HolderName: cred.HolderName,
		Assertions: cred.Assertions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(cred.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(cred.ExpiresAt),
		},
	}
}

func payloadsEqual(a, b signing.Payload) bool {
	if a.Issuer != b.Issuer || a.HolderID != b.HolderID || a.HolderName != b.HolderName {
		return false
	}
	if !numericDatesEqual(a.IssuedAt, b.IssuedAt) || !numericDatesEqual(a.ExpiresAt, b.ExpiresAt) {
		return false
	}
	aJSON, errA := json.Marshal(a.Assertions)
	bJSON, errB := json.Marshal(b.Assertions)
	return errA == nil && errB == nil && bytes.Equal(aJSON, bJSON)
}

func numericDatesEqual(a, b *jwt.NumericDate) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Unix() == b.Unix()
}

func verificationOutcome(result VerifyResult) string {
	switch {
	case result.Valid:
		return "valid"
	case !result.Checks.Signature:
		return "signature_mismatch"
	case !result.Checks.NotRevoked:
		return "revoked"
	default:
		return "expired"
	}
}

func (s *Service) shareURL(token string) string {
	if s.frontendBaseURL == "" {
		return "/verify/" + token
	}
	return s.frontendBaseURL + "/verify/" + token
}
