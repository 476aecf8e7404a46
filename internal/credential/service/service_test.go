package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustbridge/internal/credential"
	"trustbridge/internal/credential/signing"
	credstore "trustbridge/internal/credential/store"
	"trustbridge/internal/reputation"
	repstore "trustbridge/internal/reputation/store"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/requestcontext"
)

var testNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	creds  *credstore.InMemory
	claims *repstore.InMemory
	signer *signing.Context
	owner  id.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := signing.NewEphemeral()
	require.NoError(t, err)

	creds := credstore.NewInMemory()
	claims := repstore.NewInMemory()
	return &fixture{
		svc: New(creds, claims, signer, "TrustBridge",
			WithFrontendBaseURL("https://app.example.com")),
		creds:  creds,
		claims: claims,
		signer: signer,
		owner:  id.NewUserID(),
	}
}

func (f *fixture) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), testNow)
	ctx = requestcontext.WithUserID(ctx, f.owner)
	return requestcontext.WithUserName(ctx, "Ada Lovelace")
}

func (f *fixture) seedClaims(t *testing.T, types ...reputation.ClaimType) []id.ClaimID {
	t.Helper()
	claims := make([]reputation.Claim, 0, len(types))
	ids := make([]id.ClaimID, 0, len(types))
	for _, claimType := range types {
		claim := reputation.Claim{
			ID:         id.NewClaimID(),
			OwnerID:    f.owner,
			Type:       claimType,
			Text:       "evidence for " + string(claimType),
			Data:       []byte(`{"on_time_rate":1}`),
			Confidence: 0.9,
			CreatedAt:  testNow,
		}
		claims = append(claims, claim)
		ids = append(ids, claim.ID)
	}
	require.NoError(t, f.claims.ReplaceForOwner(context.Background(), f.owner, claims))
	return ids
}

func TestGenerateValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(f.ctx(), f.owner, nil, 72)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	_, err = f.svc.Generate(f.ctx(), f.owner, claimIDs, credential.MinExpiresHours-1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = f.svc.Generate(f.ctx(), f.owner, claimIDs, credential.MaxExpiresHours+1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestGenerateRejectsForeignClaimsWithoutWriting(t *testing.T) {
	f := newFixture(t)
	f.seedClaims(t, reputation.ClaimRentHistory)

	_, err := f.svc.Generate(f.ctx(), f.owner, []id.ClaimID{id.NewClaimID()}, 72)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	creds, err := f.creds.ListByOwner(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Empty(t, creds, "failed generation must leave no credential behind")
}

func TestGenerateIssuesSignedCredential(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimUtilityPayment, reputation.ClaimRentHistory)

	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	cred := issued.Credential
	assert.Equal(t, f.owner, cred.OwnerID)
	assert.Equal(t, "Ada Lovelace", cred.HolderName)
	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, testNow, cred.IssuedAt)
	assert.Equal(t, testNow.Add(72*time.Hour), cred.ExpiresAt)
	assert.Equal(t, "https://app.example.com/verify/"+cred.Token, issued.ShareURL)

	// Assertions sort by claim type regardless of request order.
	require.Len(t, cred.Assertions, 2)
	assert.Equal(t, reputation.ClaimRentHistory, cred.Assertions[0].Type)
	assert.Equal(t, reputation.ClaimUtilityPayment, cred.Assertions[1].Type)

	parsed, err := f.signer.Verify(cred.SignedJWT)
	require.NoError(t, err)
	assert.Equal(t, f.owner.String(), parsed.HolderID)
	assert.Equal(t, "TrustBridge", parsed.Issuer)
}

func TestGenerateDeduplicatesRepeatedClaimIDs(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)

	repeated := []id.ClaimID{claimIDs[0], claimIDs[0], claimIDs[0]}
	issued, err := f.svc.Generate(f.ctx(), f.owner, repeated, 72)
	require.NoError(t, err)

	cred := issued.Credential
	require.Len(t, cred.ClaimIDs, 1)
	assert.Equal(t, claimIDs[0], cred.ClaimIDs[0])
	assert.Len(t, cred.Assertions, 1, "claim_ids and assertions must agree")
}

func TestVerifyValidCredential(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	result, err := f.svc.Verify(f.ctx(), issued.Credential.Token)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.True(t, result.Checks.Signature)
	assert.True(t, result.Checks.NotExpired)
	assert.True(t, result.Checks.NotRevoked)
	assert.Equal(t, "TrustBridge", result.Issuer)
	assert.Equal(t, "Ada Lovelace", result.HolderName)
	require.Len(t, result.Claims, 1)
	assert.Equal(t, reputation.ClaimRentHistory, result.Claims[0].Type)
}

func TestVerifyCountsEveryResolvedLookup(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Verify(f.ctx(), issued.Credential.Token)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Revoke(f.ctx(), f.owner, issued.Credential.ID))
	_, err = f.svc.Verify(f.ctx(), issued.Credential.Token)
	require.NoError(t, err)

	stored, err := f.creds.FindByToken(context.Background(), issued.Credential.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.ViewCount, "invalid lookups still count as views")
}

func TestVerifyUnknownTokenDisclosesNothing(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Verify(f.ctx(), "no-such-token")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{}, result)
}

func TestVerifyExpiredCredential(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, credential.MinExpiresHours)
	require.NoError(t, err)

	later := requestcontext.WithTime(context.Background(), testNow.Add(25*time.Hour))
	result, err := f.svc.Verify(later, issued.Credential.Token)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Checks.Signature)
	assert.False(t, result.Checks.NotExpired)
	assert.True(t, result.Checks.NotRevoked)
	// Authentic but expired: the content is still disclosed.
	assert.NotEmpty(t, result.Claims)
}

func TestVerifyRevokedCredential(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(f.ctx(), f.owner, issued.Credential.ID))

	result, err := f.svc.Verify(f.ctx(), issued.Credential.Token)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Checks.Signature)
	assert.False(t, result.Checks.NotRevoked)
}

func TestVerifyDetectsTamperedSnapshot(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	// Simulate post-issuance tampering: same signed JWT, edited snapshot.
	forged := issued.Credential
	forged.ID = id.NewCredentialID()
	forged.Token = forged.Token + "x"
	forged.Assertions = append([]credential.Assertion{}, forged.Assertions...)
	forged.Assertions[0].Text = "Paid rent on time 999/999 payments"
	require.NoError(t, f.creds.Create(context.Background(), forged))

	result, err := f.svc.Verify(f.ctx(), forged.Token)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.False(t, result.Checks.Signature)
	assert.Empty(t, result.Claims, "tampered content must not be disclosed")
	assert.Empty(t, result.HolderName)
}

func TestRevokeRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	issued, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	err = f.svc.Revoke(f.ctx(), id.NewUserID(), issued.Credential.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// Revoking twice is a no-op, not an error.
	require.NoError(t, f.svc.Revoke(f.ctx(), f.owner, issued.Credential.ID))
	require.NoError(t, f.svc.Revoke(f.ctx(), f.owner, issued.Credential.ID))
}

func TestListReturnsOwnCredentialsOnly(t *testing.T) {
	f := newFixture(t)
	claimIDs := f.seedClaims(t, reputation.ClaimRentHistory)
	_, err := f.svc.Generate(f.ctx(), f.owner, claimIDs, 72)
	require.NoError(t, err)

	creds, err := f.svc.List(f.ctx(), f.owner)
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	creds, err = f.svc.List(f.ctx(), id.NewUserID())
	require.NoError(t, err)
	assert.Empty(t, creds)
}
