package swap

import (
	"math"

	"intentsim/core/types"
)

// MatchTolerance is the absolute tolerance applied when reconciling the
// cross-amounts of two candidate legs. Rate and inverse rate are tabulated
// independently, so the round-trip is not exact.
const MatchTolerance = 0.01

// Route identifies how a swap intent was satisfied.
type Route string

const (
	// RoutePeer pairs the intent with another pending intent whose terms are
	// exact mirrors.
	RoutePeer Route = "peer"
	// RouteSolver satisfies the intent from standing solver inventory.
	RouteSolver Route = "solver"
)

// Plan is a fully decided, not yet committed, swap settlement. Exactly one of
// Peer or Solver is set depending on the route.
type Plan struct {
	Route  Route
	Peer   *types.SwapIntent
	Solver *Solver
}

// Matcher resolves pending swap intents against the intent pool and, failing
// that, against solver inventory. Match only decides; committing the plan is
// the settlement layer's job and must happen without yielding in between.
type Matcher struct {
	solvers []*Solver
}

// NewMatcher constructs a matcher over the given solver set. A nil set leaves
// the fallback route permanently empty.
func NewMatcher(solvers []*Solver) *Matcher {
	return &Matcher{solvers: solvers}
}

// Solvers exposes the standing solver set for snapshots and settlement.
func (m *Matcher) Solvers() []*Solver { return m.solvers }

// Match scans the pool in insertion order for the first mirrored pending
// intent, then falls back to the first solver whose inventory covers the
// requested leg. It returns false when the intent must stay pending; an
// unmatched swap is not an error.
func (m *Matcher) Match(intent *types.SwapIntent, pool []types.Intent) (*Plan, bool) {
	for _, candidate := range pool {
		other, ok := candidate.(*types.SwapIntent)
		if !ok {
			continue
		}
		if mirrors(intent, other) {
			return &Plan{Route: RoutePeer, Peer: other}, true
		}
	}
	want := intent.Amount * intent.Rate
	for _, solver := range m.solvers {
		if solver.Holds(intent.ToToken, want) {
			return &Plan{Route: RouteSolver, Solver: solver}, true
		}
	}
	return nil, false
}

// mirrors reports whether other is a valid counter-leg for intent: mirrored
// tokens and networks, identical privacy, and cross-amounts reconciling both
// ways within MatchTolerance. First structural match wins; there is no
// best-price search.
func mirrors(intent, other *types.SwapIntent) bool {
	if other.ID == intent.ID || other.Status == types.IntentStatusCompleted {
		return false
	}
	if other.FromToken != intent.ToToken || other.ToToken != intent.FromToken {
		return false
	}
	if other.FromNetwork != intent.ToNetwork || other.ToNetwork != intent.FromNetwork {
		return false
	}
	if other.Privacy != intent.Privacy {
		return false
	}
	if math.Abs(other.Amount*other.Rate-intent.Amount) >= MatchTolerance {
		return false
	}
	if math.Abs(intent.Amount*intent.Rate-other.Amount) >= MatchTolerance {
		return false
	}
	return true
}
