package extraction

import (
	"context"
	"time"
)

// StaticGateway returns deterministic fixtures with a configurable latency to
// mimic the real extractor. Used when no extractor URL is configured.
type StaticGateway struct {
	Latency time.Duration
}

func (g StaticGateway) Submit(ctx context.Context, _ []byte, _ string) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, &ExtractionError{Message: "extractor deadline exceeded", cause: ctx.Err()}
	case <-time.After(g.Latency):
	}

	onTime := true
	return Result{
		DocumentType: "bank_statement",
		Transactions: []RawTransaction{
			{Category: "rent", AmountCents: -120_000, Currency: "USD", Date: "2026-06-01", Payee: "Acme Property Mgmt", Description: "June rent", IsOnTime: &onTime, Confidence: 0.85},
			{Category: "income", AmountCents: 350_000, Currency: "USD", Date: "2026-06-05", Payee: "Employer Inc", Description: "Salary", Confidence: 0.85},
			{Category: "utility", AmountCents: -8_500, Currency: "USD", Date: "2026-06-10", Payee: "City Power", Description: "Electricity", IsOnTime: &onTime, Confidence: 0.85},
			{Category: "bank_statement", AmountCents: 12_500, Currency: "USD", Date: "2026-06-15", Description: "Transfer in", Confidence: 0.85},
		},
	}, nil
}
