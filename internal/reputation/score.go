package reputation

import (
	"encoding/json"
	"math"

	dErrors "trustbridge/pkg/domain-errors"
)

// Weights is the fixed contribution of each category to the composite score.
// The table must cover every ClaimType and sum to 1.0; a missing category is
// a programming error the tests catch.
var Weights = map[ClaimType]float64{
	ClaimRentHistory:     0.30,
	ClaimIncomeStability: 0.30,
	ClaimUtilityPayment:  0.20,
	ClaimBankHealth:      0.20,
}

// DefaultBankHealthThresholdCents saturates the bank_health mapping: net flow
// at or beyond ±threshold pins the raw score to 100 or 0.
const DefaultBankHealthThresholdCents int64 = 500_000

// CategoryScore is one category's share of the composite, kept for
// auditability.
type CategoryScore struct {
	RawScore int     `json:"raw_score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// ScoreResult is the composite trust score with its per-category breakdown.
type ScoreResult struct {
	Score     int                         `json:"score"`
	Level     string                      `json:"level"`
	Breakdown map[ClaimType]CategoryScore `json:"breakdown"`
}

// ComputeScore aggregates claims into the 0-100 composite. A category with no
// claim scores 0 raw but keeps its weight: absence of history is itself
// informative and is not smoothed away by renormalizing.
func ComputeScore(claims []Claim, bankThresholdCents int64) (ScoreResult, error) {
	if bankThresholdCents <= 0 {
		bankThresholdCents = DefaultBankHealthThresholdCents
	}

	byType := make(map[ClaimType]*Claim, len(claims))
	for i := range claims {
		byType[claims[i].Type] = &claims[i]
	}

	breakdown := make(map[ClaimType]CategoryScore, len(AllClaimTypes))
	var total float64
	for _, claimType := range AllClaimTypes {
		weight := Weights[claimType]

		raw := 0
		if claim, ok := byType[claimType]; ok {
			computed, err := rawScore(claim, bankThresholdCents)
			if err != nil {
				return ScoreResult{}, err
			}
			raw = computed
		}

		weighted := weight * float64(raw)
		total += weighted
		breakdown[claimType] = CategoryScore{
			RawScore: raw,
			Weight:   weight,
			Weighted: math.Round(weighted*10) / 10,
		}
	}

	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return ScoreResult{Score: score, Level: levelOf(score), Breakdown: breakdown}, nil
}

// rawScore maps one claim's evidence onto [0,100]. The switch is exhaustive
// over ClaimType.
func rawScore(claim *Claim, bankThresholdCents int64) (int, error) {
	switch claim.Type {
	case ClaimRentHistory, ClaimUtilityPayment:
		var data RentHistoryData
		if err := json.Unmarshal(claim.Data, &data); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt claim data")
		}
		return int(math.Round(data.OnTimeRate * 100)), nil

	case ClaimIncomeStability:
		var data IncomeStabilityData
		if err := json.Unmarshal(claim.Data, &data); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt claim data")
		}
		return int(math.Round(data.Regularity * 100)), nil

	case ClaimBankHealth:
		var data BankHealthData
		if err := json.Unmarshal(claim.Data, &data); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt claim data")
		}
		normalized := clamp(float64(data.NetFlowCents)/float64(bankThresholdCents), -1, 1)
		return int(math.Round(50 + 50*normalized)), nil

	default:
		return 0, dErrors.Newf(dErrors.CodeInternal, "unknown claim type %q", claim.Type)
	}
}

func levelOf(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Building"
	}
}
