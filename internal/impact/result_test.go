package impact

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		ratio string
		want  Severity
	}{
		{"-0.2", SeverityNone},
		{"0", SeverityNone},
		{"0.0099", SeverityNone},
		{"0.01", SeverityLow},
		{"0.0299", SeverityLow},
		{"0.03", SeverityModerate},
		{"0.05", SeverityHigh},
		{"0.0999", SeverityHigh},
		{"0.1", SeverityExtreme},
		{"1", SeverityExtreme},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySeverity(dec(tt.ratio)), "ratio %s", tt.ratio)
	}
	assert.Empty(t, SeverityNone.Warning())
	assert.NotEmpty(t, SeverityExtreme.Warning())
}

func TestResultLegacyRatio(t *testing.T) {
	one := decimal.NewFromInt(1)

	assert.True(t, unavailable(ReasonQuoteMissing).LegacyRatio().Equal(one))
	assert.True(t, unavailable(ReasonQuotePending).LegacyRatio().IsZero())
	assert.True(t, notApplicable().LegacyRatio().Equal(one))
	assert.True(t, notApplicable().Percent().Equal(decimal.NewFromInt(100)))

	r := measured(dec("0.0123"), dec("100"), dec("98.77"))
	assert.True(t, r.LegacyRatio().Equal(dec("0.0123")))
	assert.True(t, r.Percent().Equal(dec("1.23")))
	assert.Equal(t, SeverityLow, r.Severity())
}

func TestParseOperationKind(t *testing.T) {
	for input, want := range map[string]OperationKind{"": Deposit, "join": Deposit, "deposit": Deposit, "exit": Withdrawal, "withdraw": Withdrawal} {
		got, err := ParseOperationKind(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOperationKind("swap")
	assert.Error(t, err)
}
