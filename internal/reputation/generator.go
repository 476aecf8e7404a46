package reputation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"trustbridge/internal/document"
	id "trustbridge/pkg/domain"
)

// bankHealthWindowDays bounds the trailing window for bank_health evidence.
const bankHealthWindowDays = 90

// GenerateClaims derives at most one claim per type from an owner's
// transactions. It is pure over its inputs: unchanged transactions and
// reference time reproduce identical text, data, and confidence (claim ids
// are minted fresh each run).
func GenerateClaims(owner id.UserID, txns []document.Transaction, now time.Time) []Claim {
	var claims []Claim

	if claim, ok := onTimeClaim(owner, txns, document.CategoryRent, ClaimRentHistory, now); ok {
		claims = append(claims, claim)
	}
	if claim, ok := incomeClaim(owner, txns, now); ok {
		claims = append(claims, claim)
	}
	if claim, ok := onTimeClaim(owner, txns, document.CategoryUtility, ClaimUtilityPayment, now); ok {
		claims = append(claims, claim)
	}
	if claim, ok := bankHealthClaim(owner, txns, now); ok {
		claims = append(claims, claim)
	}
	return claims
}

// onTimeClaim covers rent_history and utility_payment: the raw rate is
// on-time payments over observed payments, where observed means is_on_time
// was actually extracted. Zero observations yield no claim.
func onTimeClaim(owner id.UserID, txns []document.Transaction, category document.Category, claimType ClaimType, now time.Time) (Claim, bool) {
	var (
		observed int
		onTime   int
		sumCents int64
		dates    []time.Time
	)
	for _, txn := range txns {
		if txn.Category != category || txn.IsOnTime == nil {
			continue
		}
		observed++
		if *txn.IsOnTime {
			onTime++
		}
		sumCents += abs64(txn.AmountCents)
		if txn.Date != nil {
			dates = append(dates, *txn.Date)
		}
	}
	if observed == 0 {
		return Claim{}, false
	}

	rate := round4(float64(onTime) / float64(observed))
	avgCents := sumCents / int64(observed)

	var text string
	switch claimType {
	case ClaimRentHistory:
		text = fmt.Sprintf("Paid rent on time %d/%d payments, avg $%d/mo", onTime, observed, avgCents/100)
	default:
		text = fmt.Sprintf("Utility payments: %d/%d on time", onTime, observed)
	}

	data := RentHistoryData{
		TotalPayments:      observed,
		OnTimePayments:     onTime,
		OnTimeRate:         rate,
		AverageAmountCents: avgCents,
		Currency:           "USD",
	}

	claim := Claim{
		ID:         id.NewClaimID(),
		OwnerID:    owner,
		Type:       claimType,
		Text:       text,
		Data:       mustMarshal(data),
		Confidence: math.Min(1, float64(observed)/12),
		CreatedAt:  now,
	}
	claim.PeriodStart, claim.PeriodEnd = periodOf(dates)
	return claim, true
}

// incomeClaim measures deposit regularity: 1 - (stdev of inter-deposit
// interval / mean interval), clamped to [0,1]. Fewer than three dated
// positive deposits is not enough signal for a claim.
func incomeClaim(owner id.UserID, txns []document.Transaction, now time.Time) (Claim, bool) {
	var (
		deposits []time.Time
		sumCents int64
	)
	for _, txn := range txns {
		if txn.Category != document.CategoryIncome || txn.AmountCents <= 0 || txn.Date == nil {
			continue
		}
		deposits = append(deposits, *txn.Date)
		sumCents += txn.AmountCents
	}
	if len(deposits) < 3 {
		return Claim{}, false
	}
	sort.Slice(deposits, func(i, j int) bool { return deposits[i].Before(deposits[j]) })

	intervals := make([]float64, 0, len(deposits)-1)
	for i := 1; i < len(deposits); i++ {
		intervals = append(intervals, deposits[i].Sub(deposits[i-1]).Hours()/24)
	}
	mean := meanOf(intervals)

	var regularity float64
	if mean > 0 {
		regularity = clamp(1-stdevOf(intervals, mean)/mean, 0, 1)
	}
	regularity = round4(regularity)

	n := len(deposits)
	avgCents := sumCents / int64(n)
	data := IncomeStabilityData{
		DepositCount:        n,
		AverageDepositCents: avgCents,
		MeanIntervalDays:    round2(mean),
		Regularity:          regularity,
		Currency:            "USD",
	}

	claim := Claim{
		ID:         id.NewClaimID(),
		OwnerID:    owner,
		Type:       ClaimIncomeStability,
		Text:       fmt.Sprintf("Regular income of avg $%d across %d deposits", avgCents/100, n),
		Data:       mustMarshal(data),
		Confidence: math.Min(0.95, 0.5+float64(n)*0.04),
		CreatedAt:  now,
	}
	claim.PeriodStart, claim.PeriodEnd = periodOf(deposits)
	return claim, true
}

// bankHealthClaim sums net cash flow over bank-statement transactions dated
// within the trailing window. Undated rows carry no window evidence and are
// skipped.
func bankHealthClaim(owner id.UserID, txns []document.Transaction, now time.Time) (Claim, bool) {
	cutoff := now.AddDate(0, 0, -bankHealthWindowDays)
	var (
		netCents int64
		count    int
		dates    []time.Time
	)
	for _, txn := range txns {
		if txn.Category != document.CategoryBankStatement || txn.Date == nil {
			continue
		}
		if txn.Date.Before(cutoff) || txn.Date.After(now) {
			continue
		}
		netCents += txn.AmountCents
		count++
		dates = append(dates, *txn.Date)
	}
	if count == 0 {
		return Claim{}, false
	}

	data := BankHealthData{
		NetFlowCents:     netCents,
		Positive:         netCents >= 0,
		TransactionCount: count,
		WindowDays:       bankHealthWindowDays,
	}

	claim := Claim{
		ID:         id.NewClaimID(),
		OwnerID:    owner,
		Type:       ClaimBankHealth,
		Text:       fmt.Sprintf("Net cash flow: $%+d over trailing %d days (%d transactions)", netCents/100, bankHealthWindowDays, count),
		Data:       mustMarshal(data),
		Confidence: math.Min(0.90, 0.5+float64(count)*0.02),
		CreatedAt:  now,
	}
	claim.PeriodStart, claim.PeriodEnd = periodOf(dates)
	return claim, true
}

func periodOf(dates []time.Time) (*time.Time, *time.Time) {
	if len(dates) == 0 {
		return nil, nil
	}
	minDate, maxDate := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	return &minDate, &maxDate
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
