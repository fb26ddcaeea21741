package events

import (
	"intentsim/core/types"
	"intentsim/native/staking"
)

const (
	TypeIntentPoolUpdated  = "venue.intents.updated"
	TypeLeaderboardUpdated = "venue.leaderboard.updated"
	TypeAccountUpdated     = "venue.account.updated"
	TypeSwapMatched        = "venue.swap.matched"
	TypeStakingMatched     = "venue.staking.matched"
	TypeStakingHistory     = "venue.staking.history"
	TypeValidationFailed   = "venue.validation.failed"
)

// IntentPoolUpdated carries the full intent pool after any append, settlement
// or sweep.
type IntentPoolUpdated struct {
	Intents []types.Intent `json:"intents"`
}

// EventType implements the Event interface.
func (IntentPoolUpdated) EventType() string { return TypeIntentPoolUpdated }

// LeaderboardUpdated carries the scoreboard sorted descending by score.
type LeaderboardUpdated struct {
	Entries []types.LeaderboardEntry `json:"entries"`
}

// EventType implements the Event interface.
func (LeaderboardUpdated) EventType() string { return TypeLeaderboardUpdated }

// AccountUpdated notifies a single participant that their balances or history
// changed.
type AccountUpdated struct {
	Account *types.Account `json:"account"`
}

// EventType implements the Event interface.
func (AccountUpdated) EventType() string { return TypeAccountUpdated }

// SwapMatched notifies the submitter that their swap intent settled.
type SwapMatched struct {
	Intent *types.SwapIntent `json:"intent"`
}

// EventType implements the Event interface.
func (SwapMatched) EventType() string { return TypeSwapMatched }

// StakingMatched notifies the submitter that their staking intent settled
// with the given split plan.
type StakingMatched struct {
	Intent *types.StakingIntent `json:"intent"`
	Splits []types.StakeSplit   `json:"splits"`
}

// EventType implements the Event interface.
func (StakingMatched) EventType() string { return TypeStakingMatched }

// StakingHistoryUpdated carries the venue-wide staking receipt list after a
// committed allocation.
type StakingHistoryUpdated struct {
	Records []staking.Record `json:"records"`
}

// EventType implements the Event interface.
func (StakingHistoryUpdated) EventType() string { return TypeStakingHistory }

// ValidationFailed reports a synchronous pre-pool rejection to the submitter.
type ValidationFailed struct {
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// EventType implements the Event interface.
func (ValidationFailed) EventType() string { return TypeValidationFailed }
