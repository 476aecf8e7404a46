package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
)

func TestStatusCanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusUploaded:   {StatusExtracting},
		StatusExtracting: {StatusAnalyzing, StatusFailed},
		StatusAnalyzing:  {StatusCompleted, StatusFailed},
		StatusCompleted:  {},
		StatusFailed:     {},
	}
	all := []Status{StatusUploaded, StatusExtracting, StatusAnalyzing, StatusCompleted, StatusFailed}

	for from, targets := range allowed {
		wanted := make(map[Status]bool, len(targets))
		for _, target := range targets {
			wanted[target] = true
		}
		for _, to := range all {
			assert.Equal(t, wanted[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusUploaded.Terminal())
	assert.False(t, StatusExtracting.Terminal())
	assert.False(t, StatusAnalyzing.Terminal())
}

func TestNewDocument(t *testing.T) {
	owner := id.NewUserID()
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	doc, err := NewDocument(owner, "statement.pdf", "application/pdf", 2048, "blob-key", now)
	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, doc.Status)
	assert.Equal(t, owner, doc.OwnerID)
	assert.False(t, doc.ID.IsNil())
	assert.Nil(t, doc.ProcessedAt)

	_, err = NewDocument(owner, "", "application/pdf", 2048, "blob-key", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = NewDocument(owner, "statement.pdf", "application/pdf", 0, "blob-key", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCanTransitionRejectsIllegalMoves(t *testing.T) {
	doc := &Document{Status: StatusUploaded}

	require.NoError(t, doc.CanTransition(StatusExtracting))

	err := doc.CanTransition(StatusCompleted)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	// Failure is only reachable once processing has started.
	assert.Error(t, doc.CanTransition(StatusFailed))
}

func TestApplyTransitionSetsProcessedAtOnTerminal(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	doc := &Document{Status: StatusUploaded}
	doc.ApplyTransition(StatusExtracting, now)
	assert.Equal(t, StatusExtracting, doc.Status)
	assert.Nil(t, doc.ProcessedAt)

	doc.ApplyTransition(StatusAnalyzing, now)
	doc.ApplyTransition(StatusCompleted, now)
	require.NotNil(t, doc.ProcessedAt)
	assert.Equal(t, now, *doc.ProcessedAt)
}

func TestParseTypeFallsBackToOther(t *testing.T) {
	assert.Equal(t, TypeBankStatement, ParseType("bank_statement"))
	assert.Equal(t, TypeOther, ParseType("mystery_document"))
	assert.Equal(t, TypeOther, ParseType(""))
}

func TestParseCategoryFallsBackToOther(t *testing.T) {
	assert.Equal(t, CategoryRent, ParseCategory("rent"))
	assert.Equal(t, CategoryOther, ParseCategory("groceries"))
}
