package core

import (
	"github.com/google/uuid"

	"intentsim/core/events"
	"intentsim/core/types"
	"intentsim/native/staking"
	"intentsim/native/swap"
	"intentsim/observability"
)

// resolveSwapLocked runs the swap matcher for a freshly pooled intent and
// commits the resulting plan, all under the engine mutex. An unmatched intent
// simply stays pending; a new compatible submission is the only retry path.
func (e *Engine) resolveSwapLocked(intent *types.SwapIntent) {
	plan, ok := e.matcher.Match(intent, e.pool)
	if !ok {
		return
	}
	var committed bool
	switch plan.Route {
	case swap.RoutePeer:
		committed = e.settlePeerSwapLocked(intent, plan.Peer)
	case swap.RouteSolver:
		committed = e.settleSolverSwapLocked(intent, plan.Solver)
	}
	if !committed {
		return
	}
	observability.Venue().RecordSwapSettlement(string(plan.Route))
	e.emitter.Emit(events.IntentPoolUpdated{Intents: e.snapshotPoolLocked()})
	e.emitter.Emit(events.LeaderboardUpdated{Entries: e.board.Sorted()})
}

// settlePeerSwapLocked applies both legs of a peer match as one unit. If any
// real leg cannot cover its debit the whole plan is abandoned before any
// mutation and both intents stay pending.
func (e *Engine) settlePeerSwapLocked(intent, other *types.SwapIntent) bool {
	if !intent.Bot && !e.accounts.CanCover(intent.Nickname, intent.FromToken, intent.Amount) {
		return false
	}
	if !other.Bot && !e.accounts.CanCover(other.Nickname, other.FromToken, other.Amount) {
		return false
	}

	e.moveSwapFundsLocked(intent, "")
	e.moveSwapFundsLocked(other, "")

	now := e.nowFn()
	intent.Status = types.IntentStatusCompleted
	intent.MatchedWith = other.Nickname
	intent.CompletedAt = now
	other.Status = types.IntentStatusCompleted
	other.MatchedWith = intent.Nickname
	other.CompletedAt = now

	e.board.Award(intent.Nickname, intent.Avatar, 1)
	e.board.Award(other.Nickname, other.Avatar, 1)

	e.notifySwapPartyLocked(intent)
	e.notifySwapPartyLocked(other)

	e.log.Info("swap settled",
		"route", swap.RoutePeer,
		"intent", intent.ID,
		"counterparty", other.ID,
		"pair", intent.FromToken+"/"+intent.ToToken)
	return true
}

// settleSolverSwapLocked fills the intent from standing solver inventory. The
// submitter's ledger debit is the final feasibility gate: if it rejects,
// nothing has been mutated and the intent stays pending.
func (e *Engine) settleSolverSwapLocked(intent *types.SwapIntent, solver *swap.Solver) bool {
	received := intent.Amount * intent.Rate
	if !intent.Bot {
		if err := e.accounts.Debit(intent.Nickname, intent.FromToken, intent.Amount); err != nil {
			return false
		}
		_ = e.accounts.Credit(intent.Nickname, intent.ToToken, received)
	}
	solver.Inventory[intent.ToToken] -= received
	solver.Inventory[intent.FromToken] += intent.Amount

	intent.Status = types.IntentStatusCompleted
	intent.MatchedWith = solver.Nickname
	intent.CompletedAt = e.nowFn()

	if !intent.Bot {
		e.recordSwapLegLocked(intent, "solver")
	}
	e.board.Award(intent.Nickname, intent.Avatar, 1)
	e.board.Award(solver.Nickname, solver.Avatar, 1)

	e.notifySwapPartyLocked(intent)

	e.log.Info("swap settled",
		"route", swap.RouteSolver,
		"intent", intent.ID,
		"solver", solver.Nickname,
		"pair", intent.FromToken+"/"+intent.ToToken)
	return true
}

// moveSwapFundsLocked moves one side's funds and records the audit entry. Bot
// legs carry no ledger balances and are skipped entirely.
func (e *Engine) moveSwapFundsLocked(leg *types.SwapIntent, fulfilledBy string) {
	if leg.Bot {
		return
	}
	_ = e.accounts.Debit(leg.Nickname, leg.FromToken, leg.Amount)
	_ = e.accounts.Credit(leg.Nickname, leg.ToToken, leg.Amount*leg.Rate)
	e.recordSwapLegLocked(leg, fulfilledBy)
}

func (e *Engine) recordSwapLegLocked(leg *types.SwapIntent, fulfilledBy string) {
	e.accounts.AppendTransaction(leg.Nickname, types.Transaction{
		Type:        types.IntentKindSwap,
		Timestamp:   e.nowFn(),
		FromToken:   leg.FromToken,
		ToToken:     leg.ToToken,
		Amount:      leg.Amount,
		Rate:        leg.Rate,
		Received:    leg.Amount * leg.Rate,
		FulfilledBy: fulfilledBy,
	})
}

// notifySwapPartyLocked emits the per-party settlement events with detached
// snapshots so subscribers never observe later pool mutations.
func (e *Engine) notifySwapPartyLocked(leg *types.SwapIntent) {
	if leg.Bot {
		return
	}
	if account, err := e.accounts.Get(leg.Nickname); err == nil {
		e.emitter.Emit(events.AccountUpdated{Account: account})
	}
	settled := *leg
	e.emitter.Emit(events.SwapMatched{Intent: &settled})
}

// settleStakingLocked runs the allocator for a pending staking intent and
// commits the decided plan all-or-nothing. Nothing is mutated unless a
// complete split plan exists and the submitter's ledger debit succeeds.
func (e *Engine) settleStakingLocked(intent *types.StakingIntent) {
	if !intent.Bot && !e.accounts.CanCover(intent.Nickname, intent.Token, intent.Amount) {
		observability.Venue().RecordAllocation(false)
		return
	}
	allocations, ok := e.allocator.Allocate(intent)
	if !ok {
		observability.Venue().RecordAllocation(false)
		return
	}
	// The debit is the final feasibility gate; if it rejects, the decided
	// splits are discarded wholesale.
	if !intent.Bot {
		if err := e.accounts.Debit(intent.Nickname, intent.Token, intent.Amount); err != nil {
			observability.Venue().RecordAllocation(false)
			return
		}
	}

	now := e.nowFn()
	constraint := types.ConstraintSnapshot{
		Risk:      intent.RiskConstraint,
		Liquidity: intent.LiquidityConstraint,
		Note:      intent.Note,
	}
	splits := make([]types.StakeSplit, 0, len(allocations))
	for _, allocation := range allocations {
		pool := allocation.Pool
		pool.Available -= allocation.Amount
		splits = append(splits, types.StakeSplit{
			PoolID:     pool.ID,
			Provider:   pool.Provider,
			Token:      pool.Token,
			Network:    pool.Network,
			APR:        pool.APR,
			LockPeriod: pool.LockPeriod,
			Amount:     allocation.Amount,
		})
		e.history = append(e.history, staking.Record{
			ID:               uuid.NewString(),
			OriginalIntentID: intent.ID,
			Nickname:         intent.Nickname,
			Avatar:           intent.Avatar,
			OriginalToken:    intent.Token,
			OriginalAmount:   allocation.Amount,
			FinalToken:       pool.Token,
			FinalAmount:      allocation.Amount,
			PoolProvider:     pool.Provider,
			PoolNetwork:      pool.Network,
			APR:              pool.APR,
			LockPeriod:       pool.LockPeriod,
			CreatedAt:        intent.CreatedAt,
			CompletedAt:      now,
			Status:           string(types.IntentStatusCompleted),
			IsBot:            intent.Bot,
			Constraint:       constraint,
		})
		if !intent.Bot {
			e.stakes[intent.Nickname] = append(e.stakes[intent.Nickname], staking.ActiveStake{
				ID:         uuid.NewString(),
				Token:      pool.Token,
				Amount:     allocation.Amount,
				Pool:       pool.Provider,
				Network:    pool.Network,
				APR:        pool.APR,
				LockPeriod: pool.LockPeriod,
				StartDate:  now,
				Status:     "active",
				Constraint: constraint,
			})
			e.accounts.AppendTransaction(intent.Nickname, types.Transaction{
				Type:       types.IntentKindStaking,
				Timestamp:  now,
				Token:      intent.Token,
				Amount:     allocation.Amount,
				Pool:       pool.Provider,
				APR:        pool.APR,
				LockPeriod: pool.LockPeriod,
				Constraint: &constraint,
			})
		}
	}

	intent.Splits = splits
	intent.Status = types.IntentStatusCompleted
	intent.CompletedAt = now

	e.board.Award(intent.Nickname, intent.Avatar, len(splits))
	observability.Venue().RecordAllocation(true)

	if !intent.Bot {
		if account, err := e.accounts.Get(intent.Nickname); err == nil {
			e.emitter.Emit(events.AccountUpdated{Account: account})
		}
	}
	settled := *intent
	e.emitter.Emit(events.StakingMatched{Intent: &settled, Splits: splits})
	e.emitter.Emit(events.IntentPoolUpdated{Intents: e.snapshotPoolLocked()})
	e.emitter.Emit(events.StakingHistoryUpdated{Records: e.stakingHistoryLocked()})
	e.emitter.Emit(events.LeaderboardUpdated{Entries: e.board.Sorted()})

	e.log.Info("staking settled",
		"intent", intent.ID,
		"token", intent.Token,
		"amount", intent.Amount,
		"splits", len(splits))
}
