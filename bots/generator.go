package bots

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"intentsim/core"
	"intentsim/core/types"
)

var (
	tokens    = []string{"ETH", "BNB", "AVAX", "USDT", "USDC", "ANOMA"}
	networks  = []string{"Anoma", "Ethereum", "Cosmos", "Arbitrum", "Optimism", "BNB", "Solana", "AVAX"}
	privacies = []string{"tinggi", "sedang", "rendah"}
)

// Participant is one synthetic venue identity. Bot participants carry no
// ledger balances; their settlements skip the ledger legs.
type Participant struct {
	ID       string
	Nickname string
	Avatar   string
}

// DefaultParticipants returns the standing bot roster.
func DefaultParticipants() []Participant {
	return []Participant{
		{ID: "bot1", Nickname: "stake_anoma", Avatar: "shrimp2"},
		{ID: "bot2", Nickname: "swap_anoma", Avatar: "shrimp3"},
		{ID: "bot3", Nickname: "magic_anoma", Avatar: "shrimp1"},
	}
}

// Generator submits randomized synthetic intents to keep the venue busy. The
// cadence is paced with a token-bucket limiter.
type Generator struct {
	engine       *core.Engine
	participants []Participant
	limiter      *rate.Limiter
	rng          *rand.Rand
	log          *slog.Logger
}

// New constructs a generator submitting roughly one intent per interval.
func New(engine *core.Engine, interval time.Duration, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		engine:       engine,
		participants: DefaultParticipants(),
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		log:          log,
	}
}

// Run submits intents until the context is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := g.submitOne(); err != nil {
			g.log.Warn("bot intent rejected", "err", err)
		}
	}
}

func (g *Generator) submitOne() error {
	bot := g.participants[g.rng.Intn(len(g.participants))]
	if g.rng.Intn(2) == 0 {
		return g.submitSwap(bot)
	}
	return g.submitStake(bot)
}

func (g *Generator) submitSwap(bot Participant) error {
	fromToken := tokens[g.rng.Intn(len(tokens))]
	toToken := fromToken
	for toToken == fromToken {
		toToken = tokens[g.rng.Intn(len(tokens))]
	}
	amount := round2(g.rng.Float64()*9 + 1)
	return g.engine.SubmitIntent(&types.SwapIntent{
		IntentMeta:  types.IntentMeta{Nickname: bot.Nickname, Avatar: bot.Avatar, Bot: true},
		FromToken:   fromToken,
		ToToken:     toToken,
		FromNetwork: networks[g.rng.Intn(len(networks))],
		ToNetwork:   networks[g.rng.Intn(len(networks))],
		Amount:      amount,
		Privacy:     privacies[g.rng.Intn(len(privacies))],
	})
}

func (g *Generator) submitStake(bot Participant) error {
	pools := g.engine.StakingPools()
	available := make(map[string]float64)
	for _, pool := range pools {
		if pool.Available <= 0 {
			continue
		}
		if current, ok := available[pool.Token]; !ok || pool.Available < current {
			available[pool.Token] = pool.Available
		}
	}
	if len(available) == 0 {
		return fmt.Errorf("bots: no staking capacity left")
	}
	choices := make([]string, 0, len(available))
	for token := range available {
		choices = append(choices, token)
	}
	token := choices[g.rng.Intn(len(choices))]

	amount := round2(g.rng.Float64()*90 + 10)
	if limit := available[token]; amount > limit {
		amount = limit
	}

	// Only prefer lock styles the token's pools can actually satisfy.
	var hasLocked, hasFlexible bool
	for _, pool := range pools {
		if pool.Token != token || pool.Available <= 0 {
			continue
		}
		if pool.LockPeriod > 0 {
			hasLocked = true
		} else {
			hasFlexible = true
		}
	}
	preferLock := hasLocked
	if hasLocked && hasFlexible {
		preferLock = g.rng.Intn(2) == 0
	}

	preferAPR := types.PreferAPRHigh
	if g.rng.Intn(2) == 0 {
		preferAPR = types.PreferAPRLow
	}
	return g.engine.SubmitIntent(&types.StakingIntent{
		IntentMeta:          types.IntentMeta{Nickname: bot.Nickname, Avatar: bot.Avatar, Bot: true},
		Token:               token,
		Amount:              amount,
		PreferAPR:           preferAPR,
		PreferLock:          preferLock,
		PreferFlexible:      !preferLock,
		RiskConstraint:      types.RiskNone,
		LiquidityConstraint: types.LiquidityNone,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
