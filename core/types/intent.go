package types

// IntentKind discriminates the supported intent variants.
type IntentKind string

const (
	// IntentKindSwap identifies a token swap intent.
	IntentKindSwap IntentKind = "swap"
	// IntentKindStaking identifies a staking intent.
	IntentKindStaking IntentKind = "staking"
)

// IntentStatus captures the lifecycle state of an intent in the pool.
type IntentStatus string

const (
	// IntentStatusPending identifies intents awaiting resolution.
	IntentStatusPending IntentStatus = "pending"
	// IntentStatusCompleted marks intents that have been settled. Completed
	// intents are terminal; only pool hygiene may remove them later.
	IntentStatusCompleted IntentStatus = "completed"
)

// PreferAPR expresses the submitter's ordering preference over pool yields.
type PreferAPR string

const (
	PreferAPRNone PreferAPR = ""
	PreferAPRHigh PreferAPR = "high"
	PreferAPRLow  PreferAPR = "low"
)

// RiskConstraint bounds which pools an allocation may touch.
type RiskConstraint string

const (
	RiskNone RiskConstraint = "none"
	// RiskBluechip restricts allocation to an allow-list of reputable
	// providers.
	RiskBluechip RiskConstraint = "bluechip"
	// RiskMax20 caps any single pool at 20% of the intent amount.
	RiskMax20 RiskConstraint = "max20"
	// RiskNoExperimentalValidator is accepted and recorded but carries no
	// filtering behaviour in the reference venue.
	RiskNoExperimentalValidator RiskConstraint = "noExperimentalValidator"
)

// LiquidityConstraint bounds how quickly staked funds must be recoverable.
type LiquidityConstraint string

const (
	LiquidityNone LiquidityConstraint = "none"
	// LiquidityLiquid restricts allocation to liquid-staking providers.
	LiquidityLiquid LiquidityConstraint = "liquid"
	// LiquidityUnstake48 keeps only pools whose lock period is two days or
	// less.
	LiquidityUnstake48 LiquidityConstraint = "unstake48"
)

// IntentMeta carries the fields shared by every intent variant.
type IntentMeta struct {
	ID          string       `json:"id"`
	Nickname    string       `json:"nickname"`
	Avatar      string       `json:"avatar"`
	Bot         bool         `json:"isBot,omitempty"`
	CreatedAt   int64        `json:"createdAt"`
	Status      IntentStatus `json:"status"`
	CompletedAt int64        `json:"completedAt,omitempty"`
}

// Intent is the tagged union over swap and staking intents held by the pool.
type Intent interface {
	Kind() IntentKind
	Meta() *IntentMeta
}

// SwapIntent declares a desired token exchange. The rate is resolved from the
// rate table at submission time and frozen on the intent thereafter.
type SwapIntent struct {
	IntentMeta
	Type        IntentKind `json:"type"`
	FromToken   string     `json:"fromToken"`
	ToToken     string     `json:"toToken"`
	FromNetwork string     `json:"fromNetwork"`
	ToNetwork   string     `json:"toNetwork"`
	Amount      float64    `json:"amount"`
	Rate        float64    `json:"rate"`
	Privacy     string     `json:"privacy"`
	MatchedWith string     `json:"matchedWith,omitempty"`
}

// Kind implements the Intent interface.
func (*SwapIntent) Kind() IntentKind { return IntentKindSwap }

// Meta implements the Intent interface.
func (i *SwapIntent) Meta() *IntentMeta { return &i.IntentMeta }

// StakingIntent declares a desired yield position under user constraints. The
// note field is opaque metadata and never consulted by allocation.
type StakingIntent struct {
	IntentMeta
	Type                IntentKind          `json:"type"`
	Token               string              `json:"token"`
	Amount              float64             `json:"amount"`
	PreferAPR           PreferAPR           `json:"prefer_apr,omitempty"`
	PreferLock          bool                `json:"prefer_lock"`
	PreferFlexible      bool                `json:"prefer_flexible"`
	RiskConstraint      RiskConstraint      `json:"risk_constraint"`
	LiquidityConstraint LiquidityConstraint `json:"liquidity_constraint"`
	MinAPY              *float64            `json:"min_apy,omitempty"`
	Note                string              `json:"note,omitempty"`
	Splits              []StakeSplit        `json:"splits,omitempty"`
}

// Kind implements the Intent interface.
func (*StakingIntent) Kind() IntentKind { return IntentKindStaking }

// Meta implements the Intent interface.
func (i *StakingIntent) Meta() *IntentMeta { return &i.IntentMeta }

// StakeSplit is the immutable snapshot of one (intent, pool) allocation leg at
// settlement time.
type StakeSplit struct {
	PoolID     string  `json:"poolId"`
	Provider   string  `json:"provider"`
	Token      string  `json:"token"`
	Network    string  `json:"network"`
	APR        float64 `json:"apr"`
	LockPeriod int     `json:"lockPeriod"`
	Amount     float64 `json:"amount"`
}

// ConstraintSnapshot freezes the constraint set an allocation was decided
// under, for audit records.
type ConstraintSnapshot struct {
	Risk      RiskConstraint      `json:"risk"`
	Liquidity LiquidityConstraint `json:"liquidity"`
	Note      string              `json:"note,omitempty"`
}
