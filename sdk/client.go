// Package sdk provides a thin HTTP client for the intent venue API. It covers
// the full REST surface: registration, intent submission and the read-only
// snapshot endpoints.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"intentsim/core"
	"intentsim/core/types"
	"intentsim/native/staking"
)

const defaultTimeout = 10 * time.Second

// Client talks to one venue instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient constructs a client for the venue at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError carries the server-side error body alongside the HTTP status.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("sdk: venue returned %d: %s", e.Status, e.Message)
}

// Register registers the nickname on first sight or resumes the existing
// account.
func (c *Client) Register(ctx context.Context, nickname string) (*types.Account, error) {
	var account types.Account
	err := c.post(ctx, "/api/register", map[string]string{"nickname": nickname}, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SwapIntentRequest is the submission form for a swap intent.
type SwapIntentRequest struct {
	Nickname    string  `json:"nickname"`
	FromToken   string  `json:"fromToken"`
	ToToken     string  `json:"toToken"`
	FromNetwork string  `json:"fromNetwork"`
	ToNetwork   string  `json:"toNetwork"`
	Amount      float64 `json:"amount"`
	Privacy     string  `json:"privacy"`
}

// StakingIntentRequest is the submission form for a staking intent.
type StakingIntentRequest struct {
	Nickname            string                    `json:"nickname"`
	Token               string                    `json:"token"`
	Amount              float64                   `json:"amount"`
	PreferAPR           types.PreferAPR           `json:"prefer_apr,omitempty"`
	PreferLock          bool                      `json:"prefer_lock,omitempty"`
	PreferFlexible      bool                      `json:"prefer_flexible,omitempty"`
	RiskConstraint      types.RiskConstraint      `json:"risk_constraint,omitempty"`
	LiquidityConstraint types.LiquidityConstraint `json:"liquidity_constraint,omitempty"`
	MinAPY              *float64                  `json:"min_apy,omitempty"`
	Note                string                    `json:"note,omitempty"`
}

type submission struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// SubmitSwapIntent submits a swap intent and returns the assigned intent ID.
func (c *Client) SubmitSwapIntent(ctx context.Context, req SwapIntentRequest) (string, error) {
	payload := struct {
		Type types.IntentKind `json:"type"`
		SwapIntentRequest
	}{Type: types.IntentKindSwap, SwapIntentRequest: req}
	var accepted submission
	if err := c.post(ctx, "/api/intents", payload, &accepted); err != nil {
		return "", err
	}
	return accepted.ID, nil
}

// SubmitStakingIntent submits a staking intent and returns the assigned
// intent ID.
func (c *Client) SubmitStakingIntent(ctx context.Context, req StakingIntentRequest) (string, error) {
	payload := struct {
		Type types.IntentKind `json:"type"`
		StakingIntentRequest
	}{Type: types.IntentKindStaking, StakingIntentRequest: req}
	var accepted submission
	if err := c.post(ctx, "/api/intents", payload, &accepted); err != nil {
		return "", err
	}
	return accepted.ID, nil
}

// SwapIntents returns the pooled swap intents.
func (c *Client) SwapIntents(ctx context.Context) ([]types.SwapIntent, error) {
	var out []types.SwapIntent
	return out, c.get(ctx, "/api/intents", &out)
}

// StakingIntents returns the pooled staking intents.
func (c *Client) StakingIntents(ctx context.Context) ([]types.StakingIntent, error) {
	var out []types.StakingIntent
	return out, c.get(ctx, "/api/staking-intents", &out)
}

// StakingHistory returns the venue-wide settlement receipts, newest first.
func (c *Client) StakingHistory(ctx context.Context) ([]staking.Record, error) {
	var out []staking.Record
	return out, c.get(ctx, "/api/staking-history", &out)
}

// StakingPools returns the pool inventory with live capacity.
func (c *Client) StakingPools(ctx context.Context) ([]staking.Pool, error) {
	var out []staking.Pool
	return out, c.get(ctx, "/api/staking-pools", &out)
}

// Leaderboard returns the scoreboard sorted descending by score.
func (c *Client) Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	var out []types.LeaderboardEntry
	return out, c.get(ctx, "/api/leaderboard", &out)
}

// SwapRates returns the conversion table keyed "FROM-TO".
func (c *Client) SwapRates(ctx context.Context) (map[string]float64, error) {
	var out map[string]float64
	return out, c.get(ctx, "/api/swap-rates", &out)
}

// Health returns the venue state counters.
func (c *Client) Health(ctx context.Context) (*core.HealthSummary, error) {
	var out core.HealthSummary
	if err := c.get(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the account, active stakes and transaction history for a
// registered nickname.
func (c *Client) Profile(ctx context.Context, nickname string) (*core.Profile, error) {
	var out core.Profile
	if err := c.get(ctx, "/api/profile/"+url.PathEscape(nickname), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(raw))
		}
		return &apiError{Status: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsNotFound reports whether err is a venue 404 response.
func IsNotFound(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
