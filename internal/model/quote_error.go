package model

// QuoteError records a request that could not be evaluated.
type QuoteError struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	PoolID string `json:"pool_id,omitempty"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}
