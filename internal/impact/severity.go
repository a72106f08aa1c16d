package impact

import "github.com/shopspring/decimal"

// Price impact thresholds as ratios.
var (
	ThresholdLow      = decimal.RequireFromString("0.01")
	ThresholdModerate = decimal.RequireFromString("0.03")
	ThresholdHigh     = decimal.RequireFromString("0.05")
	ThresholdExtreme  = decimal.RequireFromString("0.10")
)

// Severity represents the severity level of price impact.
type Severity string

const (
	SeverityNone     Severity = "none"     // < 1%
	SeverityLow      Severity = "low"      // 1-3%
	SeverityModerate Severity = "moderate" // 3-5%
	SeverityHigh     Severity = "high"     // 5-10%
	SeverityExtreme  Severity = "extreme"  // >= 10%
)

// ClassifySeverity buckets an impact ratio. Negative impact (the deposit
// improves the pool's balance) is SeverityNone.
func ClassifySeverity(ratio decimal.Decimal) Severity {
	switch {
	case ratio.LessThan(ThresholdLow):
		return SeverityNone
	case ratio.LessThan(ThresholdModerate):
		return SeverityLow
	case ratio.LessThan(ThresholdHigh):
		return SeverityModerate
	case ratio.LessThan(ThresholdExtreme):
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// Warning returns a user-facing message for the severity.
func (s Severity) Warning() string {
	switch s {
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider a more balanced deposit"
	case SeverityHigh:
		return "High price impact - you may receive significantly fewer pool shares"
	case SeverityExtreme:
		return "Extreme price impact - this deposit will severely move the pool price"
	default:
		return ""
	}
}
