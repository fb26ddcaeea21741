package types

// Transaction is an immutable per-account audit entry, created exactly once
// per settled leg. Swap and staking settlements populate different subsets of
// the fields; consumers switch on Type.
type Transaction struct {
	ID        string     `json:"id"`
	Type      IntentKind `json:"type"`
	Timestamp int64      `json:"timestamp"`

	// Swap legs.
	FromToken   string  `json:"fromToken,omitempty"`
	ToToken     string  `json:"toToken,omitempty"`
	Rate        float64 `json:"rate,omitempty"`
	Received    float64 `json:"received,omitempty"`
	FulfilledBy string  `json:"fulfilledBy,omitempty"`

	// Staking legs.
	Token      string              `json:"token,omitempty"`
	Pool       string              `json:"pool,omitempty"`
	APR        float64             `json:"apr,omitempty"`
	LockPeriod int                 `json:"lockPeriod,omitempty"`
	Constraint *ConstraintSnapshot `json:"constraint,omitempty"`

	Amount float64 `json:"amount"`
}
