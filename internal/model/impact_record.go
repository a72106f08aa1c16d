package model

import "encoding/json"

// ImpactRecord is the stored outcome of a price impact request. Numeric
// fields are decimal strings; Ratio, ZeroImpactShares and QuotedShares are
// empty unless Status is "measured".
type ImpactRecord struct {
	ID               string `json:"id"`
	PoolID           string `json:"pool_id"`
	Status           string `json:"status"`
	Reason           string `json:"reason,omitempty"`
	Ratio            string `json:"ratio,omitempty"`
	LegacyRatio      string `json:"legacy_ratio"`
	Percent          string `json:"percent"`
	ZeroImpactShares string `json:"zero_impact_shares,omitempty"`
	QuotedShares     string `json:"quoted_shares,omitempty"`
	Estimated        bool   `json:"estimated,omitempty"`
	Severity         string `json:"severity"`
	Warning          string `json:"warning,omitempty"`
	ComputedAt       string `json:"computed_at"`
}

// MarshalJSON ensures ImpactRecord is encoded with stable field names.
func (r ImpactRecord) MarshalJSON() ([]byte, error) {
	type Alias ImpactRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an ImpactRecord from JSON.
func (r *ImpactRecord) UnmarshalJSON(data []byte) error {
	type Alias ImpactRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = ImpactRecord(a)
	return nil
}
