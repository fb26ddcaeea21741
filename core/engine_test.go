package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"intentsim/core/events"
	"intentsim/core/types"
	"intentsim/native/leaderboard"
	"intentsim/native/ledger"
	"intentsim/native/rates"
	"intentsim/native/staking"
	"intentsim/native/swap"
)

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(event events.Event) {
	r.events = append(r.events, event)
}

func (r *recordingEmitter) count(eventType string) int {
	var n int
	for _, event := range r.events {
		if event.EventType() == eventType {
			n++
		}
	}
	return n
}

type testClock struct {
	ms int64
}

func (c *testClock) now() int64 { return c.ms }

type engineFixture struct {
	engine  *Engine
	store   *ledger.Store
	emitter *recordingEmitter
	clock   *testClock
}

func newFixture(seed map[string]float64, table *rates.Table, solvers []*swap.Solver, pools []*staking.Pool) *engineFixture {
	store := ledger.NewStore(seed)
	store.SetAvatarFunc(func() string { return "shrimp1" })
	clock := &testClock{ms: 1_000}
	store.SetNowFunc(clock.now)
	engine := NewEngine(store, table, swap.NewMatcher(solvers), staking.NewAllocator(pools), leaderboard.NewBoard())
	engine.SetNowFunc(clock.now)
	engine.SetSettlementDelay(0)
	emitter := &recordingEmitter{}
	engine.SetEmitter(emitter)
	return &engineFixture{engine: engine, store: store, emitter: emitter, clock: clock}
}

func usdcPools(capacities ...float64) []*staking.Pool {
	pools := make([]*staking.Pool, 0, len(capacities))
	for i, capacity := range capacities {
		pools = append(pools, &staking.Pool{
			ID:         string(rune('a' + i)),
			Provider:   "AnomaChain",
			Token:      "USDC",
			Network:    "Anoma",
			APR:        10 + float64(i),
			LockPeriod: 7,
			Available:  capacity,
		})
	}
	return pools
}

func mustRegister(t *testing.T, f *engineFixture, nickname string) {
	t.Helper()
	if _, err := f.engine.RegisterOrResume(nickname); err != nil {
		t.Fatalf("register %s: %v", nickname, err)
	}
}

func submitSwap(t *testing.T, f *engineFixture, nickname, from, to string, amount float64, bot bool) *types.SwapIntent {
	t.Helper()
	intent := &types.SwapIntent{
		IntentMeta:  types.IntentMeta{Nickname: nickname, Avatar: "shrimp1", Bot: bot},
		FromToken:   from,
		ToToken:     to,
		FromNetwork: "Ethereum",
		ToNetwork:   "Anoma",
		Amount:      amount,
		Privacy:     "sedang",
	}
	if err := f.engine.SubmitIntent(intent); err != nil {
		t.Fatalf("submit swap for %s: %v", nickname, err)
	}
	return intent
}

func submitMirrorSwap(t *testing.T, f *engineFixture, nickname, from, to string, amount float64) *types.SwapIntent {
	t.Helper()
	intent := &types.SwapIntent{
		IntentMeta:  types.IntentMeta{Nickname: nickname, Avatar: "shrimp1"},
		FromToken:   from,
		ToToken:     to,
		FromNetwork: "Anoma",
		ToNetwork:   "Ethereum",
		Amount:      amount,
		Privacy:     "sedang",
	}
	if err := f.engine.SubmitIntent(intent); err != nil {
		t.Fatalf("submit mirror swap for %s: %v", nickname, err)
	}
	return intent
}

func submitStaking(t *testing.T, f *engineFixture, nickname string, amount float64, mutate func(*types.StakingIntent)) *types.StakingIntent {
	t.Helper()
	intent := &types.StakingIntent{
		IntentMeta:          types.IntentMeta{Nickname: nickname, Avatar: "shrimp1"},
		Token:               "USDC",
		Amount:              amount,
		RiskConstraint:      types.RiskNone,
		LiquidityConstraint: types.LiquidityNone,
	}
	if mutate != nil {
		mutate(intent)
	}
	if err := f.engine.SubmitIntent(intent); err != nil {
		t.Fatalf("submit staking for %s: %v", nickname, err)
	}
	return intent
}

func TestPeerMatchSettlesBothLegs(t *testing.T) {
	table := rates.NewTable()
	table.Set("USDC", "ANOMA", 2)
	table.Set("ANOMA", "USDC", 0.5)
	f := newFixture(map[string]float64{"USDC": 1000, "ANOMA": 2000}, table, nil, nil)
	mustRegister(t, f, "alice")
	mustRegister(t, f, "bob")

	other := submitMirrorSwap(t, f, "bob", "ANOMA", "USDC", 2000)
	if other.Status != types.IntentStatusPending {
		t.Fatalf("bob's intent should wait for a counterparty")
	}
	intent := submitSwap(t, f, "alice", "USDC", "ANOMA", 1000, false)

	if intent.Status != types.IntentStatusCompleted || other.Status != types.IntentStatusCompleted {
		t.Fatalf("both legs should complete: %v / %v", intent.Status, other.Status)
	}
	if intent.MatchedWith != "bob" || other.MatchedWith != "alice" {
		t.Fatalf("matchedWith wrong: %q / %q", intent.MatchedWith, other.MatchedWith)
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 0 {
		t.Fatalf("alice USDC: got %v", got)
	}
	if got := f.store.BalanceOf("alice", "ANOMA"); got != 4000 {
		t.Fatalf("alice ANOMA: got %v", got)
	}
	if got := f.store.BalanceOf("bob", "ANOMA"); got != 0 {
		t.Fatalf("bob ANOMA: got %v", got)
	}
	if got := f.store.BalanceOf("bob", "USDC"); got != 2000 {
		t.Fatalf("bob USDC: got %v", got)
	}
	for _, nickname := range []string{"alice", "bob"} {
		if got := f.engine.Leaderboard(); len(got) != 2 {
			t.Fatalf("leaderboard entries: %d", len(got))
		}
		if txs := f.store.Transactions(nickname); len(txs) != 1 {
			t.Fatalf("%s transactions: %d", nickname, len(txs))
		}
	}
	if f.emitter.count(events.TypeSwapMatched) != 2 {
		t.Fatalf("expected one match event per party")
	}
}

func TestPeerMatchMirrorProperty(t *testing.T) {
	table := rates.NewTable()
	table.Set("USDC", "ANOMA", 2)
	table.Set("ANOMA", "USDC", 0.5)
	f := newFixture(map[string]float64{"USDC": 1000, "ANOMA": 2000}, table, nil, nil)
	mustRegister(t, f, "alice")
	mustRegister(t, f, "bob")

	submitMirrorSwap(t, f, "bob", "ANOMA", "USDC", 2000)
	intent := submitSwap(t, f, "alice", "USDC", "ANOMA", 1000, false)

	// What alice loses in USDC, bob's counter-leg accounts for within the
	// matching tolerance, and vice versa.
	bobReceivedUSDC := 2000 * 0.5
	if math.Abs(bobReceivedUSDC-intent.Amount) >= swap.MatchTolerance {
		t.Fatalf("mirror property violated: %v vs %v", bobReceivedUSDC, intent.Amount)
	}
	aliceReceivedANOMA := 1000 * 2.0
	if math.Abs(aliceReceivedANOMA-2000) >= swap.MatchTolerance {
		t.Fatalf("mirror property violated: %v", aliceReceivedANOMA)
	}
}

func TestSolverFallbackSettlesAndAwardsBoth(t *testing.T) {
	table := rates.NewTable()
	table.Set("USDC", "ETH", 0.0002857)
	solver := &swap.Solver{ID: "solver1", Nickname: "anoma_solver", Avatar: "shrimp_solver",
		Inventory: map[string]float64{"ETH": 10}}
	f := newFixture(map[string]float64{"USDC": 100}, table, []*swap.Solver{solver}, nil)
	mustRegister(t, f, "carol")

	intent := submitSwap(t, f, "carol", "USDC", "ETH", 100, false)

	if intent.Status != types.IntentStatusCompleted || intent.MatchedWith != "anoma_solver" {
		t.Fatalf("expected solver settlement, got %v / %q", intent.Status, intent.MatchedWith)
	}
	wantETH := 100 * 0.0002857
	if got := f.store.BalanceOf("carol", "ETH"); math.Abs(got-wantETH) > 1e-12 {
		t.Fatalf("carol ETH: got %v want %v", got, wantETH)
	}
	if got := f.store.BalanceOf("carol", "USDC"); got != 0 {
		t.Fatalf("carol USDC: got %v", got)
	}
	if got := solver.Inventory["ETH"]; math.Abs(got-(10-wantETH)) > 1e-12 {
		t.Fatalf("solver ETH inventory: got %v", got)
	}
	if got := solver.Inventory["USDC"]; got != 100 {
		t.Fatalf("solver USDC inventory: got %v", got)
	}
	board := f.engine.Leaderboard()
	if len(board) != 2 {
		t.Fatalf("both submitter and solver should score, got %d entries", len(board))
	}
	for _, entry := range board {
		if entry.Score != 1 {
			t.Fatalf("%s score: %d", entry.Nickname, entry.Score)
		}
	}
	if txs := f.store.Transactions("carol"); len(txs) != 1 || txs[0].FulfilledBy != "solver" {
		t.Fatalf("solver leg must be recorded: %+v", txs)
	}
}

func TestSubmitRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 100}, rates.NewTable(), nil, nil)
	mustRegister(t, f, "alice")

	intent := &types.SwapIntent{
		IntentMeta: types.IntentMeta{Nickname: "alice"},
		FromToken:  "USDC", ToToken: "ETH",
		FromNetwork: "Ethereum", ToNetwork: "Anoma",
		Amount: 5000, Privacy: "sedang",
	}
	err := f.engine.SubmitIntent(intent)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(f.engine.Intents()) != 0 {
		t.Fatalf("rejected intent must never enter the pool")
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 100 {
		t.Fatalf("rejection mutated state: %v", got)
	}
	if f.emitter.count(events.TypeValidationFailed) != 1 {
		t.Fatalf("expected a validation event")
	}
}

func TestSubmitRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(nil, rates.NewTable(), nil, nil)
	mustRegister(t, f, "alice")
	intent := &types.SwapIntent{
		IntentMeta: types.IntentMeta{Nickname: "alice"},
		FromToken:  "USDC", ToToken: "ETH",
		Amount: 0, Privacy: "sedang",
	}
	if err := f.engine.SubmitIntent(intent); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestUnmatchedSwapStaysPendingWithoutError(t *testing.T) {
	f := newFixture(nil, rates.NewTable(), nil, nil)
	mustRegister(t, f, "alice")
	intent := submitSwap(t, f, "alice", "USDC", "ETH", 100, false)
	if intent.Status != types.IntentStatusPending {
		t.Fatalf("unmatched swap must stay pending")
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 1000 {
		t.Fatalf("pending intent must not move funds: %v", got)
	}
}

func TestPassiveRetryCompletesOnCompatibleArrival(t *testing.T) {
	table := rates.NewTable()
	table.Set("USDC", "ANOMA", 2)
	table.Set("ANOMA", "USDC", 0.5)
	f := newFixture(map[string]float64{"USDC": 1000, "ANOMA": 2000}, table, nil, nil)
	mustRegister(t, f, "alice")
	mustRegister(t, f, "bob")

	intent := submitSwap(t, f, "alice", "USDC", "ANOMA", 1000, false)
	if intent.Status != types.IntentStatusPending {
		t.Fatalf("intent should be pending before any counterparty exists")
	}

	// The engine never re-scans on its own; an incompatible submission
	// leaves the earlier intent untouched.
	submitSwap(t, f, "bob", "USDC", "ANOMA", 1, false)
	if intent.Status != types.IntentStatusPending {
		t.Fatalf("incompatible submission must not complete the intent")
	}

	submitMirrorSwap(t, f, "bob", "ANOMA", "USDC", 2000)
	if intent.Status != types.IntentStatusCompleted {
		t.Fatalf("compatible arrival should settle the waiting intent")
	}
}

func TestStakingSinglePoolSettlement(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 10000}, rates.NewTable(), nil, usdcPools(10000, 8000))
	mustRegister(t, f, "alice")

	intent := submitStaking(t, f, "alice", 5000, nil)

	if intent.Status != types.IntentStatusCompleted {
		t.Fatalf("expected completed staking intent")
	}
	if len(intent.Splits) != 1 || intent.Splits[0].Amount != 5000 {
		t.Fatalf("unexpected splits: %+v", intent.Splits)
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 5000 {
		t.Fatalf("ledger debit wrong: %v", got)
	}
	pools := f.engine.StakingPools()
	if pools[0].Available != 5000 || pools[1].Available != 8000 {
		t.Fatalf("pool capacity wrong: %v / %v", pools[0].Available, pools[1].Available)
	}
	if history := f.engine.StakingHistory(); len(history) != 1 || history[0].FinalAmount != 5000 {
		t.Fatalf("unexpected staking history: %+v", history)
	}
	profile, err := f.engine.GetProfile("alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(profile.Stakes) != 1 || len(profile.Transactions) != 1 {
		t.Fatalf("profile missing settlement records: %+v", profile)
	}
}

func TestStakingInfeasibleLeavesStatePristine(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 20000}, rates.NewTable(), nil, usdcPools(5000, 5000, 5000))
	mustRegister(t, f, "alice")

	intent := submitStaking(t, f, "alice", 10000, func(i *types.StakingIntent) {
		i.RiskConstraint = types.RiskMax20
	})

	if intent.Status != types.IntentStatusPending {
		t.Fatalf("infeasible allocation must stay pending")
	}
	if intent.Splits != nil {
		t.Fatalf("no partial split plan may persist")
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 20000 {
		t.Fatalf("infeasible allocation debited the ledger: %v", got)
	}
	for _, pool := range f.engine.StakingPools() {
		if pool.Available != 5000 {
			t.Fatalf("infeasible allocation mutated pool capacity: %v", pool.Available)
		}
	}
	if len(f.engine.StakingHistory()) != 0 {
		t.Fatalf("infeasible allocation recorded history")
	}
}

func TestStakingSplitsSumExactly(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 10000}, rates.NewTable(), nil, usdcPools(3000, 4000))
	mustRegister(t, f, "alice")

	intent := submitStaking(t, f, "alice", 5000, nil)
	if intent.Status != types.IntentStatusCompleted {
		t.Fatalf("expected completed intent")
	}
	var total float64
	for _, split := range intent.Splits {
		total += split.Amount
	}
	if total != 5000 {
		t.Fatalf("splits must sum to the exact amount, got %v", total)
	}
	if got := f.engine.Leaderboard()[0].Score; got != len(intent.Splits) {
		t.Fatalf("points must equal split count: %d vs %d", got, len(intent.Splits))
	}
}

func TestDelayedResolutionRevalidatesAtFireTime(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 10000}, rates.NewTable(), nil, usdcPools(5000))
	mustRegister(t, f, "alice")
	mustRegister(t, f, "bob")

	f.engine.SetSettlementDelay(30 * time.Millisecond)
	delayed := submitStaking(t, f, "alice", 4000, nil)

	// Another intent consumes the capacity before the delayed task fires.
	f.engine.SetSettlementDelay(0)
	immediate := submitStaking(t, f, "bob", 4000, nil)
	if immediate.Status != types.IntentStatusCompleted {
		t.Fatalf("immediate intent should settle first")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := f.engine.StakingIntents(); len(got) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	if status := currentStatus(f.engine, delayed.ID); status != types.IntentStatusPending {
		t.Fatalf("stale plan must not commit; status %v", status)
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 10000 {
		t.Fatalf("stale plan debited the ledger: %v", got)
	}
	if pools := f.engine.StakingPools(); pools[0].Available != 1000 {
		t.Fatalf("pool capacity wrong after both resolutions: %v", pools[0].Available)
	}
}

func currentStatus(engine *Engine, id string) types.IntentStatus {
	for _, intent := range engine.Intents() {
		if intent.Meta().ID == id {
			return intent.Meta().Status
		}
	}
	return ""
}

func TestResolveStakingNoopsOnSettledOrUnknownIntent(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 10000}, rates.NewTable(), nil, usdcPools(10000))
	mustRegister(t, f, "alice")

	intent := submitStaking(t, f, "alice", 1000, nil)
	if intent.Status != types.IntentStatusCompleted {
		t.Fatalf("expected completed intent")
	}

	f.engine.resolveStaking(intent.ID)
	f.engine.resolveStaking("no-such-intent")

	if got := f.store.BalanceOf("alice", "USDC"); got != 9000 {
		t.Fatalf("duplicate fire double-debited: %v", got)
	}
	if len(f.engine.StakingHistory()) != 1 {
		t.Fatalf("duplicate fire duplicated history")
	}
}

func TestStakingDebitIsFinalGate(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 5000}, rates.NewTable(), nil, usdcPools(10000))
	mustRegister(t, f, "alice")

	f.engine.SetSettlementDelay(20 * time.Millisecond)
	delayed := submitStaking(t, f, "alice", 4000, nil)

	// Drain the balance before the delayed task fires; the decided splits
	// must be discarded wholesale when the debit rejects.
	if err := f.store.Debit("alice", "USDC", 4500); err != nil {
		t.Fatalf("drain: %v", err)
	}
	time.Sleep(80 * time.Millisecond)

	if status := currentStatus(f.engine, delayed.ID); status != types.IntentStatusPending {
		t.Fatalf("intent should stay pending, got %v", status)
	}
	if pools := f.engine.StakingPools(); pools[0].Available != 10000 {
		t.Fatalf("discarded splits mutated pool capacity: %v", pools[0].Available)
	}
}

func TestBotSettlementSkipsLedger(t *testing.T) {
	f := newFixture(nil, rates.NewTable(), nil, usdcPools(10000))

	intent := &types.StakingIntent{
		IntentMeta:          types.IntentMeta{Nickname: "stake_anoma", Avatar: "shrimp2", Bot: true},
		Token:               "USDC",
		Amount:              500,
		RiskConstraint:      types.RiskNone,
		LiquidityConstraint: types.LiquidityNone,
	}
	if err := f.engine.SubmitIntent(intent); err != nil {
		t.Fatalf("bot submit: %v", err)
	}
	if intent.Status != types.IntentStatusCompleted {
		t.Fatalf("bot intent should settle")
	}
	if f.store.Count() != 0 {
		t.Fatalf("bot settlement created an account")
	}
	if pools := f.engine.StakingPools(); pools[0].Available != 9500 {
		t.Fatalf("bot settlement must still consume capacity: %v", pools[0].Available)
	}
	if history := f.engine.StakingHistory(); len(history) != 1 || !history[0].IsBot {
		t.Fatalf("bot history missing: %+v", history)
	}
}

func TestSweepRemovesOldCompletedKeepsPending(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 10000}, rates.NewTable(), nil, usdcPools(10000))
	mustRegister(t, f, "alice")

	completed := submitStaking(t, f, "alice", 1000, nil)
	if completed.Status != types.IntentStatusCompleted {
		t.Fatalf("expected completed intent")
	}
	pending := submitSwap(t, f, "alice", "USDC", "ETH", 10, false)

	// Within the retention window nothing is removed.
	f.clock.ms += (5 * time.Minute).Milliseconds()
	if removed := f.engine.Sweep(); removed != 0 {
		t.Fatalf("sweep removed fresh intents: %d", removed)
	}

	f.clock.ms += (6 * time.Minute).Milliseconds()
	if removed := f.engine.Sweep(); removed != 1 {
		t.Fatalf("sweep should remove one stale completed intent, got %d", removed)
	}
	remaining := f.engine.Intents()
	if len(remaining) != 1 || remaining[0].Meta().ID != pending.ID {
		t.Fatalf("pending intents must always be retained: %+v", remaining)
	}
}

func TestBalancesNeverGoNegative(t *testing.T) {
	table := rates.NewTable()
	table.Set("USDC", "ETH", 0.0002857)
	solver := &swap.Solver{Nickname: "anoma_solver", Inventory: map[string]float64{"ETH": 10}}
	f := newFixture(map[string]float64{"USDC": 250}, table, []*swap.Solver{solver}, nil)
	mustRegister(t, f, "alice")

	for i := 0; i < 5; i++ {
		intent := &types.SwapIntent{
			IntentMeta: types.IntentMeta{Nickname: "alice"},
			FromToken:  "USDC", ToToken: "ETH",
			FromNetwork: "Ethereum", ToNetwork: "Anoma",
			Amount: 100, Privacy: "sedang",
		}
		err := f.engine.SubmitIntent(intent)
		if i < 2 && err != nil {
			t.Fatalf("submission %d should succeed: %v", i, err)
		}
		if i >= 2 && !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("submission %d should reject: %v", i, err)
		}
		if got := f.store.BalanceOf("alice", "USDC"); got < 0 {
			t.Fatalf("balance went negative: %v", got)
		}
	}
	if got := f.store.BalanceOf("alice", "USDC"); got != 50 {
		t.Fatalf("expected 50 USDC left, got %v", got)
	}
}

func TestGetProfileUnknownIdentity(t *testing.T) {
	f := newFixture(nil, rates.NewTable(), nil, nil)
	if _, err := f.engine.GetProfile("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterEmitsAccountUpdated(t *testing.T) {
	f := newFixture(nil, rates.NewTable(), nil, nil)
	mustRegister(t, f, "alice")
	if f.emitter.count(events.TypeAccountUpdated) != 1 {
		t.Fatalf("registration should notify the account")
	}
}

func TestHealthCounts(t *testing.T) {
	f := newFixture(map[string]float64{"USDC": 10000}, rates.NewTable(), nil, usdcPools(1000))
	mustRegister(t, f, "alice")
	submitStaking(t, f, "alice", 500, nil)
	submitSwap(t, f, "alice", "USDC", "ETH", 10, false)

	health := f.engine.Health()
	if health.Status != "OK" {
		t.Fatalf("status: %s", health.Status)
	}
	if health.Accounts != 1 || health.TotalIntents != 2 {
		t.Fatalf("counts wrong: %+v", health)
	}
	if health.PendingIntents != 1 || health.CompletedIntents != 1 {
		t.Fatalf("lifecycle counts wrong: %+v", health)
	}
	if health.AvailablePools != 1 || health.StakingPools != 1 {
		t.Fatalf("pool counts wrong: %+v", health)
	}
}
