package impact

import "github.com/shopspring/decimal"

// Status tags what a Result carries.
type Status string

const (
	StatusMeasured      Status = "measured"
	StatusUnavailable   Status = "unavailable"
	StatusNotApplicable Status = "not_applicable"
)

// Reason explains a non-measured Result.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonQuoteMissing   Reason = "quote_missing"
	ReasonQuotePending   Reason = "quote_pending"
	ReasonWithdrawalTodo Reason = "withdrawal_unsupported"
)

// Result is the outcome of a price impact computation. Ratio,
// ZeroImpactShares and QuotedShares are only meaningful when Status is
// StatusMeasured.
type Result struct {
	Status           Status
	Reason           Reason
	Ratio            decimal.Decimal
	ZeroImpactShares decimal.Decimal
	QuotedShares     decimal.Decimal
}

func measured(ratio, zeroImpact, quoted decimal.Decimal) Result {
	return Result{
		Status:           StatusMeasured,
		Ratio:            ratio,
		ZeroImpactShares: zeroImpact,
		QuotedShares:     quoted,
	}
}

func unavailable(reason Reason) Result {
	return Result{Status: StatusUnavailable, Reason: reason}
}

func notApplicable() Result {
	return Result{Status: StatusNotApplicable, Reason: ReasonWithdrawalTodo}
}

// IsMeasured reports whether the result carries a real ratio.
func (r Result) IsMeasured() bool {
	return r.Status == StatusMeasured
}

// LegacyRatio folds the result into a single number the way older callers
// expect: 1 when no quote was supplied or for withdrawals, 0 while the
// quote is pending, otherwise the measured ratio.
func (r Result) LegacyRatio() decimal.Decimal {
	switch r.Status {
	case StatusMeasured:
		return r.Ratio
	case StatusUnavailable:
		if r.Reason == ReasonQuotePending {
			return decimal.Zero
		}
		return decimal.NewFromInt(1)
	default:
		return decimal.NewFromInt(1)
	}
}

// Percent returns the legacy ratio as a percentage.
func (r Result) Percent() decimal.Decimal {
	return r.LegacyRatio().Mul(decimal.NewFromInt(100))
}

// Severity classifies a measured result. Anything else is SeverityNone.
func (r Result) Severity() Severity {
	if !r.IsMeasured() {
		return SeverityNone
	}
	return ClassifySeverity(r.Ratio)
}
