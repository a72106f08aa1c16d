package model

// ImpactRequest is one deposit to evaluate in batch mode. A null or absent
// quoted_shares means no external quote is available.
type ImpactRequest struct {
	ID           string   `json:"id"`
	PoolID       string   `json:"pool_id,omitempty"`
	Amounts      []string `json:"amounts"`
	QuotedShares *string  `json:"quoted_shares"`
}
