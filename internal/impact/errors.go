package impact

import (
	"errors"

	"phantomImpact/internal/fixedpoint"
)

// Failure taxonomy. Callers match with errors.Is.
var (
	ErrInvalidAmount           = fixedpoint.ErrInvalidAmount
	ErrSchemaMismatch          = errors.New("schema mismatch")
	ErrDivisionByZero          = errors.New("zero-impact shares are zero")
	ErrSolverContractViolation = errors.New("solver contract violation")
)
