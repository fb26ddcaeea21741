package staking

import (
	"sort"
	"strings"

	"intentsim/core/types"
)

// max20Fraction caps any single pool's share of an allocation under the max20
// risk constraint.
const max20Fraction = 0.2

// bluechipProviders is the allow-list consulted by the bluechip risk
// constraint. Matching is by substring against the provider name.
var bluechipProviders = []string{"Anoma", "Lido", "Rocket", "Osmosis", "Pancake", "Avalanche", "Solana", "BNB"}

// liquidProviders is the allow-list consulted by the liquid staking
// constraint.
var liquidProviders = []string{"Lido", "Anoma", "Rocket"}

// unstake48MaxLockDays is the longest lock period (days) acceptable under the
// unstake48 liquidity constraint.
const unstake48MaxLockDays = 2

// Allocation is one decided, not yet committed, split of an intent onto a
// pool.
type Allocation struct {
	Pool   *Pool
	Amount float64
}

// Allocator resolves staking intents against a pool set. Constraints are
// orthogonal feasibility filters composed with a single greedy packing pass;
// greedy is not globally optimal under max20, which is an accepted trade-off.
type Allocator struct {
	pools []*Pool
}

// NewAllocator constructs an allocator over the given pool inventory.
func NewAllocator(pools []*Pool) *Allocator {
	return &Allocator{pools: pools}
}

// Pools exposes the pool inventory for snapshots.
func (a *Allocator) Pools() []*Pool { return a.pools }

// Allocate decides an all-or-nothing split plan for the intent. It returns
// false when no complete plan exists; in that case nothing may be committed
// and the intent stays pending. Allocate never mutates pool capacity; the
// settlement layer decrements Available when it commits the plan.
func (a *Allocator) Allocate(intent *types.StakingIntent) ([]Allocation, bool) {
	eligible := a.filter(intent)
	orderByAPR(eligible, intent.PreferAPR)

	maxPerPool := intent.Amount
	if intent.RiskConstraint == types.RiskMax20 {
		maxPerPool = intent.Amount * max20Fraction
		if maxPerPool < 1 {
			maxPerPool = 1
		}
	}

	remaining := intent.Amount
	var splits []Allocation
	for _, pool := range eligible {
		if remaining <= 0 {
			break
		}
		take := pool.Available
		if remaining < take {
			take = remaining
		}
		if maxPerPool < take {
			take = maxPerPool
		}
		if take <= 0 {
			continue
		}
		splits = append(splits, Allocation{Pool: pool, Amount: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, false
	}
	return splits, true
}

// filter applies the intent's constraint set over pools holding the intent's
// token. The freeform note is opaque metadata and never consulted here.
func (a *Allocator) filter(intent *types.StakingIntent) []*Pool {
	var eligible []*Pool
	for _, pool := range a.pools {
		if pool.Token != intent.Token {
			continue
		}
		if intent.PreferLock && pool.Flexible() {
			continue
		}
		if intent.PreferFlexible && !pool.Flexible() {
			continue
		}
		if intent.MinAPY != nil && pool.APR < *intent.MinAPY {
			continue
		}
		if intent.RiskConstraint == types.RiskBluechip && !providerListed(pool.Provider, bluechipProviders) {
			continue
		}
		switch intent.LiquidityConstraint {
		case types.LiquidityLiquid:
			if !providerListed(pool.Provider, liquidProviders) {
				continue
			}
		case types.LiquidityUnstake48:
			if pool.LockPeriod > unstake48MaxLockDays {
				continue
			}
		}
		eligible = append(eligible, pool)
	}
	return eligible
}

func providerListed(provider string, list []string) bool {
	for _, name := range list {
		if strings.Contains(provider, name) {
			return true
		}
	}
	return false
}

// orderByAPR sorts pools by yield according to the submitter's preference.
// Without a preference the stable filter order is kept.
func orderByAPR(pools []*Pool, prefer types.PreferAPR) {
	switch prefer {
	case types.PreferAPRHigh:
		sort.SliceStable(pools, func(i, j int) bool { return pools[i].APR > pools[j].APR })
	case types.PreferAPRLow:
		sort.SliceStable(pools, func(i, j int) bool { return pools[i].APR < pools[j].APR })
	}
}
