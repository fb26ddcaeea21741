package core

import (
	"sort"
	"time"

	"intentsim/core/types"
	"intentsim/native/staking"
)

// snapshotPoolLocked returns detached copies of every pooled intent so
// subscribers and API handlers never race against later settlements.
func (e *Engine) snapshotPoolLocked() []types.Intent {
	out := make([]types.Intent, 0, len(e.pool))
	for _, intent := range e.pool {
		switch v := intent.(type) {
		case *types.SwapIntent:
			c := *v
			out = append(out, &c)
		case *types.StakingIntent:
			c := *v
			out = append(out, &c)
		}
	}
	return out
}

func (e *Engine) stakingHistoryLocked() []staking.Record {
	out := make([]staking.Record, len(e.history))
	copy(out, e.history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt > out[j].CompletedAt })
	return out
}

// Intents returns a snapshot of the full pool in insertion order.
func (e *Engine) Intents() []types.Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotPoolLocked()
}

// SwapIntents returns a snapshot of the pool's swap intents.
func (e *Engine) SwapIntents() []types.SwapIntent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []types.SwapIntent
	for _, intent := range e.pool {
		if v, ok := intent.(*types.SwapIntent); ok {
			out = append(out, *v)
		}
	}
	return out
}

// StakingIntents returns a snapshot of the pool's staking intents.
func (e *Engine) StakingIntents() []types.StakingIntent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []types.StakingIntent
	for _, intent := range e.pool {
		if v, ok := intent.(*types.StakingIntent); ok {
			out = append(out, *v)
		}
	}
	return out
}

// StakingHistory returns every settlement receipt, newest first.
func (e *Engine) StakingHistory() []staking.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stakingHistoryLocked()
}

// StakingPools returns a snapshot of the pool inventory.
func (e *Engine) StakingPools() []staking.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pools := e.allocator.Pools()
	out := make([]staking.Pool, 0, len(pools))
	for _, pool := range pools {
		out = append(out, *pool)
	}
	return out
}

// Leaderboard returns the scoreboard sorted descending by score.
func (e *Engine) Leaderboard() []types.LeaderboardEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Sorted()
}

// SwapRates returns the rate table keyed "FROM-TO".
func (e *Engine) SwapRates() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rates.Snapshot()
}

// HealthSummary is the read-only state-size report served by the API.
type HealthSummary struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	Accounts         int    `json:"accounts"`
	TotalIntents     int    `json:"totalIntents"`
	PendingIntents   int    `json:"pendingIntents"`
	CompletedIntents int    `json:"completedIntents"`
	BotIntents       int    `json:"botIntents"`
	UserIntents      int    `json:"userIntents"`
	StakingHistory   int    `json:"stakingHistory"`
	StakingPools     int    `json:"stakingPools"`
	AvailablePools   int    `json:"availablePools"`
	Leaderboard      int    `json:"leaderboard"`
	SwapRates        int    `json:"swapRates"`
}

// Health counts the engine's state for the health endpoint.
func (e *Engine) Health() HealthSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	summary := HealthSummary{
		Status:         "OK",
		Timestamp:      time.UnixMilli(e.nowFn()).UTC().Format(time.RFC3339),
		Accounts:       e.accounts.Count(),
		TotalIntents:   len(e.pool),
		StakingHistory: len(e.history),
		StakingPools:   len(e.allocator.Pools()),
		Leaderboard:    e.board.Len(),
		SwapRates:      e.rates.Len(),
	}
	for _, intent := range e.pool {
		meta := intent.Meta()
		if meta.Status == types.IntentStatusPending {
			summary.PendingIntents++
		} else {
			summary.CompletedIntents++
		}
		if meta.Bot {
			summary.BotIntents++
		} else {
			summary.UserIntents++
		}
	}
	for _, pool := range e.allocator.Pools() {
		if pool.Available > 0 {
			summary.AvailablePools++
		}
	}
	return summary
}
