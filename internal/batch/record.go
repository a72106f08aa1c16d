package batch

import (
	"errors"
	"time"

	"phantomImpact/internal/impact"
	"phantomImpact/internal/model"
)

// Error kinds written to the errors JSONL.
const (
	KindDecode         = "decode"
	KindPoolMismatch   = "pool_mismatch"
	KindInvalidAmount  = "invalid_amount"
	KindSchemaMismatch = "schema_mismatch"
	KindDivisionByZero = "division_by_zero"
	KindSolver         = "solver_contract_violation"
	KindEstimate       = "estimate"
	KindUnknown        = "unknown"
)

// ErrorKind maps a calculator error onto its error kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, impact.ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, impact.ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, impact.ErrDivisionByZero):
		return KindDivisionByZero
	case errors.Is(err, impact.ErrSolverContractViolation):
		return KindSolver
	default:
		return KindUnknown
	}
}

// NewRecord flattens a calculator result into a storable record.
func NewRecord(id, poolID string, res impact.Result, estimated bool, computedAt time.Time) model.ImpactRecord {
	severity := res.Severity()
	record := model.ImpactRecord{
		ID:          id,
		PoolID:      poolID,
		Status:      string(res.Status),
		Reason:      string(res.Reason),
		LegacyRatio: res.LegacyRatio().String(),
		Percent:     res.Percent().String(),
		Estimated:   estimated,
		Severity:    string(severity),
		Warning:     severity.Warning(),
		ComputedAt:  computedAt.UTC().Format(time.RFC3339),
	}
	if res.IsMeasured() {
		record.Ratio = res.Ratio.String()
		record.ZeroImpactShares = res.ZeroImpactShares.String()
		record.QuotedShares = res.QuotedShares.String()
	}
	return record
}
