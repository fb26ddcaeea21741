package types

// Account is a registered venue participant. Accounts are keyed by a stable
// nickname and survive reconnects; transient session identifiers are a
// transport concern and never appear here.
type Account struct {
	Nickname     string             `json:"nickname"`
	Avatar       string             `json:"avatar"`
	Balances     map[string]float64 `json:"balances"`
	PrivacyScore int                `json:"privacyScore"`
	LastActive   int64              `json:"lastActive"`
}

// Copy returns a deep copy to avoid callers mutating shared balance maps.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Balances = make(map[string]float64, len(a.Balances))
	for token, amount := range a.Balances {
		clone.Balances[token] = amount
	}
	return &clone
}

// LeaderboardEntry is one scoreboard row. Scores are monotonically
// non-decreasing for any identity.
type LeaderboardEntry struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
}
