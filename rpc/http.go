package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intentsim/core"
	"intentsim/core/types"
	"intentsim/native/ledger"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// Server exposes the venue core over HTTP: the submit/register/profile
// operations, the read-only snapshot surface, the websocket event stream and
// the Prometheus metrics endpoint.
type Server struct {
	engine *core.Engine
	hub    *Hub
	log    *slog.Logger
}

// NewServer wires the API to the engine and the notifier hub.
func NewServer(engine *core.Engine, hub *Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: engine, hub: hub, log: log}
}

// Handler builds the chi router for the full API surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleStream)

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", s.handleRegister)
		api.Post("/intents", s.handleSubmitIntent)
		api.Get("/intents", s.handleSwapIntents)
		api.Get("/staking-intents", s.handleStakingIntents)
		api.Get("/staking-history", s.handleStakingHistory)
		api.Get("/staking-pools", s.handleStakingPools)
		api.Get("/leaderboard", s.handleLeaderboard)
		api.Get("/swap-rates", s.handleSwapRates)
		api.Get("/health", s.handleHealth)
		api.Get("/profile/{nickname}", s.handleProfile)
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type registerRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := s.engine.RegisterOrResume(req.Nickname)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, account)
}

// flexAmount accepts both JSON numbers and localized strings ("1,5") the way
// the submit form has historically sent them.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) >= 2 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*a = flexAmount(parsed)
		return nil
	}
	var parsed float64
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*a = flexAmount(parsed)
	return nil
}

type submitIntentRequest struct {
	Type     types.IntentKind `json:"type"`
	Nickname string           `json:"nickname"`
	Amount   flexAmount       `json:"amount"`

	// Swap fields.
	FromToken   string `json:"fromToken"`
	ToToken     string `json:"toToken"`
	FromNetwork string `json:"fromNetwork"`
	ToNetwork   string `json:"toNetwork"`
	Privacy     string `json:"privacy"`

	// Staking fields.
	Token               string                    `json:"token"`
	PreferAPR           types.PreferAPR           `json:"prefer_apr"`
	PreferLock          bool                      `json:"prefer_lock"`
	PreferFlexible      bool                      `json:"prefer_flexible"`
	RiskConstraint      types.RiskConstraint      `json:"risk_constraint"`
	LiquidityConstraint types.LiquidityConstraint `json:"liquidity_constraint"`
	MinAPY              *float64                  `json:"min_apy"`
	Note                string                    `json:"note"`
}

func (s *Server) handleSubmitIntent(w http.ResponseWriter, r *http.Request) {
	var req submitIntentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	meta := types.IntentMeta{Nickname: strings.TrimSpace(req.Nickname)}
	if profile, err := s.engine.GetProfile(meta.Nickname); err == nil {
		meta.Avatar = profile.Account.Avatar
	}

	var intent types.Intent
	switch req.Type {
	case types.IntentKindSwap:
		intent = &types.SwapIntent{
			IntentMeta:  meta,
			FromToken:   req.FromToken,
			ToToken:     req.ToToken,
			FromNetwork: req.FromNetwork,
			ToNetwork:   req.ToNetwork,
			Amount:      float64(req.Amount),
			Privacy:     req.Privacy,
		}
	case types.IntentKindStaking:
		intent = &types.StakingIntent{
			IntentMeta:          meta,
			Token:               req.Token,
			Amount:              float64(req.Amount),
			PreferAPR:           req.PreferAPR,
			PreferLock:          req.PreferLock,
			PreferFlexible:      req.PreferFlexible,
			RiskConstraint:      req.RiskConstraint,
			LiquidityConstraint: req.LiquidityConstraint,
			MinAPY:              req.MinAPY,
			Note:                req.Note,
		}
	default:
		s.writeError(w, http.StatusBadRequest, errors.New("unknown intent type"))
		return
	}

	if err := s.engine.SubmitIntent(intent); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ledger.ErrUnknownAccount) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"id":     intent.Meta().ID,
	})
}

func (s *Server) handleSwapIntents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.SwapIntents())
}

func (s *Server) handleStakingIntents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.StakingIntents())
}

func (s *Server) handleStakingHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.StakingHistory())
}

func (s *Server) handleStakingPools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.StakingPools())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Leaderboard())
}

func (s *Server) handleSwapRates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.SwapRates())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Health())
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")
	profile, err := s.engine.GetProfile(nickname)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownAccount) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	return decoder.Decode(out)
}
