// Package credential owns signed, shareable, revocable bundles of claims.
package credential

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

// Expiry bounds for issued credentials, in hours.
const (
	MinExpiresHours = 24
	MaxExpiresHours = 720
)

// Assertion is one claim as it appears inside a signed credential payload.
type Assertion struct {
	Type       reputation.ClaimType `json:"type"`
	Text       string               `json:"text"`
	Data       json.RawMessage      `json:"data"`
	Confidence float64              `json:"confidence"`
}

// AssertionsFromClaims converts claims to payload assertions, sorted by claim
// type so the canonical payload is deterministic.
func AssertionsFromClaims(claims []reputation.Claim) []Assertion {
	out := make([]Assertion, 0, len(claims))
	for _, claim := range claims {
		out = append(out, Assertion{
			Type:       claim.Type,
			Text:       claim.Text,
			Data:       claim.Data,
			Confidence: claim.Confidence,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Credential is one issued bundle. It is created once, then mutated only by
// revocation and by the verifier's view-count increment; never deleted.
type Credential struct {
	ID         id.CredentialID
	OwnerID    id.UserID
	HolderName string
	Token      string
	ClaimIDs   []id.ClaimID
	Assertions []Assertion
	SignedJWT  string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	IsRevoked  bool
	ViewCount  int64
	CreatedAt  time.Time
}

// MintToken returns a fresh 256-bit URL-safe share token.
func MintToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
