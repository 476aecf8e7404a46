// Package reputation derives verifiable claims from extracted transactions
// and aggregates them into the trust score.
package reputation

import (
	"encoding/json"
	"fmt"
	"time"

	id "trustbridge/pkg/domain"
)

// ClaimType is the closed set of financial-behavior categories. Every
// consumer switches exhaustively over it; adding a category requires updating
// the score weight table, which a test asserts covers all types.
type ClaimType string

const (
	ClaimRentHistory     ClaimType = "rent_history"
	ClaimIncomeStability ClaimType = "income_stability"
	ClaimUtilityPayment  ClaimType = "utility_payment"
	ClaimBankHealth      ClaimType = "bank_health"
)

// AllClaimTypes is the enumeration order used wherever a stable category
// order matters (score breakdowns, canonical credential payloads).
var AllClaimTypes = []ClaimType{
	ClaimRentHistory,
	ClaimIncomeStability,
	ClaimUtilityPayment,
	ClaimBankHealth,
}

// Claim is one scored statement about an owner's behavior in a category.
// The live set for an owner is a pure function of that owner's completed
// documents' transactions; regeneration replaces the whole set atomically.
type Claim struct {
	ID          id.ClaimID
	OwnerID     id.UserID
	Type        ClaimType
	Text        string
	Data        json.RawMessage
	Confidence  float64
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	CreatedAt   time.Time
}

// RentHistoryData is the structured evidence for rent_history claims.
// UtilityPaymentData shares the shape for utility_payment.
type RentHistoryData struct {
	TotalPayments      int     `json:"total_payments"`
	OnTimePayments     int     `json:"on_time_payments"`
	OnTimeRate         float64 `json:"on_time_rate"`
	AverageAmountCents int64   `json:"average_amount_cents"`
	Currency           string  `json:"currency"`
}

// IncomeStabilityData is the structured evidence for income_stability claims.
type IncomeStabilityData struct {
	DepositCount        int     `json:"deposit_count"`
	AverageDepositCents int64   `json:"average_deposit_cents"`
	MeanIntervalDays    float64 `json:"mean_interval_days"`
	Regularity          float64 `json:"regularity"`
	Currency            string  `json:"currency"`
}

// BankHealthData is the structured evidence for bank_health claims.
type BankHealthData struct {
	NetFlowCents     int64 `json:"net_flow_cents"`
	Positive         bool  `json:"positive"`
	TransactionCount int   `json:"transaction_count"`
	WindowDays       int   `json:"window_days"`
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only reachable for unmarshalable types, which the typed evidence
		// structs above are not.
		panic(fmt.Sprintf("marshal claim data: %v", err))
	}
	return raw
}
