package swap

// Solver is a privileged synthetic counterparty with standing token inventory
// and a declared set of reachable networks. Solvers are only consulted as a
// fallback when no peer match exists.
type Solver struct {
	ID        string             `json:"id"`
	Nickname  string             `json:"nickname"`
	Avatar    string             `json:"avatar"`
	Inventory map[string]float64 `json:"inventory"`
	Networks  []string           `json:"networks"`
}

// Holds reports whether the solver inventory can cover amount of token.
func (s *Solver) Holds(token string, amount float64) bool {
	if s == nil {
		return false
	}
	return s.Inventory[token] >= amount
}

// DefaultSolvers returns the venue's standing solver set.
func DefaultSolvers() []*Solver {
	return []*Solver{
		{
			ID:       "solver1",
			Nickname: "anoma_solver",
			Avatar:   "shrimp_solver",
			Inventory: map[string]float64{
				"ETH":   10,
				"BNB":   100,
				"AVAX":  100,
				"USDT":  5000,
				"USDC":  5000,
				"ANOMA": 2000,
			},
			Networks: []string{"Ethereum", "BNB", "AVAX", "Anoma", "Optimism", "Arbitrum", "Cosmos", "Solana"},
		},
	}
}
