package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"intentsim/core/events"
	"intentsim/core/types"
	"intentsim/native/ledger"
	"intentsim/native/leaderboard"
	"intentsim/native/rates"
	"intentsim/native/staking"
	"intentsim/native/swap"
	"intentsim/observability"
)

var (
	// ErrInvalidAmount rejects intents whose amount is not strictly positive.
	ErrInvalidAmount = errors.New("venue engine: intent amount must be positive")
	// ErrInsufficientBalance mirrors the ledger rejection for callers that do
	// not want to import the ledger package.
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	// ErrNotFound is returned for profile lookups on unknown identities.
	ErrNotFound = ledger.ErrUnknownAccount

	errUnknownIntentKind = errors.New("venue engine: unsupported intent kind")
)

const (
	defaultSettlementDelay = 2 * time.Second
	defaultSweepInterval   = time.Minute
	defaultRetention       = 10 * time.Minute
)

// Engine is the intent resolution core: it owns the ledger, the intent pool,
// the staking pool inventory, the solver set and the leaderboard, and applies
// every settlement as one atomic unit.
//
// Concurrency: a single mutex serialises every read-then-mutate sequence.
// Matching for one intent runs to completion (decide + commit) before any
// other intent's resolution may begin. Submissions arriving concurrently are
// serialised into the pool in lock-acquisition order.
type Engine struct {
	mu sync.Mutex

	accounts  *ledger.Store
	rates     *rates.Table
	matcher   *swap.Matcher
	allocator *staking.Allocator
	board     *leaderboard.Board

	pool    []types.Intent
	history []staking.Record
	stakes  map[string][]staking.ActiveStake

	emitter     events.Emitter
	sched       *scheduler
	nowFn       func() int64
	settleDelay time.Duration
	sweepEvery  time.Duration
	retention   time.Duration
	log         *slog.Logger
}

// NewEngine wires the resolution core to its state modules. Missing modules
// are replaced with empty defaults so tests can construct partial engines.
func NewEngine(accounts *ledger.Store, table *rates.Table, matcher *swap.Matcher, allocator *staking.Allocator, board *leaderboard.Board) *Engine {
	if accounts == nil {
		accounts = ledger.NewStore(nil)
	}
	if table == nil {
		table = rates.NewTable()
	}
	if matcher == nil {
		matcher = swap.NewMatcher(nil)
	}
	if allocator == nil {
		allocator = staking.NewAllocator(nil)
	}
	if board == nil {
		board = leaderboard.NewBoard()
	}
	return &Engine{
		accounts:    accounts,
		rates:       table,
		matcher:     matcher,
		allocator:   allocator,
		board:       board,
		stakes:      make(map[string][]staking.ActiveStake),
		emitter:     events.NoopEmitter{},
		sched:       newScheduler(),
		nowFn:       func() int64 { return time.Now().UnixMilli() },
		settleDelay: defaultSettlementDelay,
		sweepEvery:  defaultSweepInterval,
		retention:   defaultRetention,
		log:         slog.Default(),
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source (unix milliseconds). Primarily
// intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	e.nowFn = now
}

// SetSettlementDelay configures the artificial delay before a staking intent
// is handed to the allocator. Zero resolves synchronously.
func (e *Engine) SetSettlementDelay(d time.Duration) { e.settleDelay = d }

// SetSweep configures the hygiene cadence and the retention window for
// completed intents.
func (e *Engine) SetSweep(interval, retention time.Duration) {
	if interval > 0 {
		e.sweepEvery = interval
	}
	if retention > 0 {
		e.retention = retention
	}
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	e.log = log
}

// RegisterOrResume registers a nickname on first sight and resumes the
// existing account on every later call. Balances and history are never reset.
func (e *Engine) RegisterOrResume(nickname string) (*types.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	account, err := e.accounts.RegisterOrResume(nickname)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AccountUpdated{Account: account})
	return account, nil
}

// Profile bundles an account with its live stakes and audit trail.
type Profile struct {
	Account      *types.Account        `json:"user"`
	Stakes       []staking.ActiveStake `json:"stakes"`
	Transactions []types.Transaction   `json:"transactions"`
}

// GetProfile returns the account, active stakes and transactions (newest
// first) for a registered nickname.
func (e *Engine) GetProfile(nickname string) (*Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	account, err := e.accounts.Get(nickname)
	if err != nil {
		return nil, err
	}
	stakes := make([]staking.ActiveStake, len(e.stakes[nickname]))
	copy(stakes, e.stakes[nickname])
	return &Profile{
		Account:      account,
		Stakes:       stakes,
		Transactions: e.accounts.Transactions(nickname),
	}, nil
}

// SubmitIntent validates the intent synchronously against the ledger, appends
// it to the pool as pending, and triggers the resolution routine for its
// kind. Resolution outcomes are delivered via events, never as a return
// value: an unmatched intent is not an error.
func (e *Engine) SubmitIntent(intent types.Intent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta := intent.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	meta.CreatedAt = e.nowFn()
	meta.Status = types.IntentStatusPending
	meta.CompletedAt = 0

	switch it := intent.(type) {
	case *types.SwapIntent:
		it.Type = types.IntentKindSwap
		if it.Amount <= 0 {
			return e.reject(meta, ErrInvalidAmount)
		}
		if !meta.Bot && !e.accounts.CanCover(meta.Nickname, it.FromToken, it.Amount) {
			return e.reject(meta, fmt.Errorf("%w: %s needs %.4f %s, holds %.4f",
				ErrInsufficientBalance, meta.Nickname, it.Amount, it.FromToken,
				e.accounts.BalanceOf(meta.Nickname, it.FromToken)))
		}
		it.Rate = e.rates.Rate(it.FromToken, it.ToToken)
		e.pool = append(e.pool, it)
		observability.Venue().RecordIntent(string(types.IntentKindSwap))
		e.emitter.Emit(events.IntentPoolUpdated{Intents: e.snapshotPoolLocked()})
		e.resolveSwapLocked(it)
		return nil
	case *types.StakingIntent:
		it.Type = types.IntentKindStaking
		if it.RiskConstraint == "" {
			it.RiskConstraint = types.RiskNone
		}
		if it.LiquidityConstraint == "" {
			it.LiquidityConstraint = types.LiquidityNone
		}
		if it.Amount <= 0 {
			return e.reject(meta, ErrInvalidAmount)
		}
		if !meta.Bot && !e.accounts.CanCover(meta.Nickname, it.Token, it.Amount) {
			return e.reject(meta, fmt.Errorf("%w: %s needs %.4f %s, holds %.4f",
				ErrInsufficientBalance, meta.Nickname, it.Amount, it.Token,
				e.accounts.BalanceOf(meta.Nickname, it.Token)))
		}
		e.pool = append(e.pool, it)
		observability.Venue().RecordIntent(string(types.IntentKindStaking))
		e.emitter.Emit(events.IntentPoolUpdated{Intents: e.snapshotPoolLocked()})
		if e.settleDelay <= 0 {
			e.settleStakingLocked(it)
			return nil
		}
		id := meta.ID
		e.sched.schedule(id, e.settleDelay, func() { e.resolveStaking(id) })
		return nil
	default:
		return errUnknownIntentKind
	}
}

// reject reports a pre-pool validation failure. Shared state is untouched.
func (e *Engine) reject(meta *types.IntentMeta, err error) error {
	observability.Venue().RecordRejection()
	e.emitter.Emit(events.ValidationFailed{Nickname: meta.Nickname, Message: err.Error()})
	return err
}

// resolveStaking is the deferred resolution task body. Feasibility is
// re-validated here at fire time; a stale plan is never committed. If the
// intent has left the pool or already settled, the task no-ops.
func (e *Engine) resolveStaking(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	intent := e.findStakingLocked(id)
	if intent == nil || intent.Status != types.IntentStatusPending {
		return
	}
	e.settleStakingLocked(intent)
}

func (e *Engine) findStakingLocked(id string) *types.StakingIntent {
	for _, candidate := range e.pool {
		if intent, ok := candidate.(*types.StakingIntent); ok && intent.ID == id {
			return intent
		}
	}
	return nil
}

// Run drives pool hygiene until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Sweep()
		}
	}
}

// Sweep removes completed intents older than the retention window. Pending
// intents are always retained. It returns the number of removed intents.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := e.nowFn() - e.retention.Milliseconds()
	kept := e.pool[:0]
	for _, intent := range e.pool {
		meta := intent.Meta()
		if meta.Status == types.IntentStatusPending || meta.CompletedAt > cutoff {
			kept = append(kept, intent)
		}
	}
	removed := len(e.pool) - len(kept)
	e.pool = kept
	if removed > 0 {
		observability.Venue().RecordSweep(removed)
		e.log.Info("intent pool swept", "removed", removed, "remaining", len(e.pool))
		e.emitter.Emit(events.IntentPoolUpdated{Intents: e.snapshotPoolLocked()})
	}
	return removed
}

// Close cancels every outstanding deferred resolution task.
func (e *Engine) Close() {
	e.sched.stop()
}
