package staking

import (
	"github.com/google/uuid"

	"intentsim/core/types"
)

// Pool is one staking venue with finite capacity. Available capacity only
// decreases, and only via committed allocations.
type Pool struct {
	ID         string  `json:"id"`
	Provider   string  `json:"provider"`
	Token      string  `json:"token"`
	Network    string  `json:"network"`
	APR        float64 `json:"apr"`
	LockPeriod int     `json:"lockPeriod"`
	Available  float64 `json:"available"`
}

// Flexible reports whether the pool has no lock period.
func (p *Pool) Flexible() bool { return p.LockPeriod == 0 }

// DefaultPools returns the venue's standing pool inventory.
func DefaultPools() []*Pool {
	return []*Pool{
		{ID: uuid.NewString(), Provider: "AnomaChain", Token: "USDC", Network: "Anoma", APR: 15.5, LockPeriod: 7, Available: 10000},
		{ID: uuid.NewString(), Provider: "AnomaChain Plus", Token: "USDC", Network: "Anoma", APR: 18.2, LockPeriod: 14, Available: 8000},
		{ID: uuid.NewString(), Provider: "Osmosis", Token: "USDC", Network: "Cosmos", APR: 12.2, LockPeriod: 7, Available: 8000},
		{ID: uuid.NewString(), Provider: "Lido", Token: "ETH", Network: "Ethereum", APR: 5.8, LockPeriod: 30, Available: 500},
		{ID: uuid.NewString(), Provider: "SolanaStake", Token: "USDT", Network: "Solana", APR: 9.7, LockPeriod: 10, Available: 2000},
		{ID: uuid.NewString(), Provider: "PancakeSwap", Token: "BNB", Network: "BNB", APR: 8.3, LockPeriod: 21, Available: 1500},
		{ID: uuid.NewString(), Provider: "AvalancheStake", Token: "AVAX", Network: "AVAX", APR: 11.2, LockPeriod: 14, Available: 1200},
	}
}

// Record is the immutable receipt of one (intent, pool) split, appended to the
// venue-wide staking history at settlement time.
type Record struct {
	ID               string                   `json:"id"`
	OriginalIntentID string                   `json:"originalIntentId"`
	Nickname         string                   `json:"nickname"`
	Avatar           string                   `json:"avatar"`
	OriginalToken    string                   `json:"originalToken"`
	OriginalAmount   float64                  `json:"originalAmount"`
	FinalToken       string                   `json:"finalToken"`
	FinalAmount      float64                  `json:"finalAmount"`
	PoolProvider     string                   `json:"poolProvider"`
	PoolNetwork      string                   `json:"poolNetwork"`
	APR              float64                  `json:"apr"`
	LockPeriod       int                      `json:"lockPeriod"`
	CreatedAt        int64                    `json:"createdAt"`
	CompletedAt      int64                    `json:"completedAt"`
	Status           string                   `json:"status"`
	IsBot            bool                     `json:"isBot"`
	Constraint       types.ConstraintSnapshot `json:"constraint"`
}

// ActiveStake is a participant's live position created from one split.
type ActiveStake struct {
	ID         string                   `json:"id"`
	Token      string                   `json:"token"`
	Amount     float64                  `json:"amount"`
	Pool       string                   `json:"pool"`
	Network    string                   `json:"network"`
	APR        float64                  `json:"apr"`
	LockPeriod int                      `json:"lockPeriod"`
	StartDate  int64                    `json:"startDate"`
	Status     string                   `json:"status"`
	Constraint types.ConstraintSnapshot `json:"constraint"`
}
