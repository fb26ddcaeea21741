package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"intentsim/core/types"
)

var (
	// ErrInvalidNickname rejects registration attempts with an identity that
	// is too short to be stable.
	ErrInvalidNickname = errors.New("ledger: nickname must be at least 3 characters")
	// ErrUnknownAccount is returned for lookups on identities that never
	// registered.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrInsufficientBalance rejects a debit that would take a balance below
	// zero. The debit is rejected outright, never partially applied.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)

const minNicknameLen = 3

// InitialBalances is the fixed starting balance table seeded into every new
// account at first registration.
func InitialBalances() map[string]float64 {
	return map[string]float64{
		"ETH":   1.0,
		"BNB":   5.0,
		"AVAX":  10.0,
		"USDT":  1000,
		"USDC":  1000,
		"ANOMA": 500,
	}
}

var defaultAvatars = []string{"shrimp1", "shrimp2", "shrimp3"}

// Store holds every registered account, its balances and its transaction
// history. The store performs no internal locking: the venue engine serialises
// all access behind its own mutex (single-writer discipline).
type Store struct {
	seed     map[string]float64
	accounts map[string]*types.Account
	history  map[string][]types.Transaction
	avatarFn func() string
	nowFn    func() int64
}

// NewStore constructs a store that seeds new accounts from the supplied
// balance table. A nil table falls back to InitialBalances.
func NewStore(seed map[string]float64) *Store {
	if seed == nil {
		seed = InitialBalances()
	}
	return &Store{
		seed:     seed,
		accounts: make(map[string]*types.Account),
		history:  make(map[string][]types.Transaction),
		avatarFn: func() string { return defaultAvatars[rand.Intn(len(defaultAvatars))] },
		nowFn:    func() int64 { return time.Now().UnixMilli() },
	}
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (s *Store) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().UnixMilli() }
		return
	}
	s.nowFn = now
}

// SetAvatarFunc overrides avatar assignment for deterministic tests.
func (s *Store) SetAvatarFunc(fn func() string) {
	if fn == nil {
		fn = func() string { return defaultAvatars[rand.Intn(len(defaultAvatars))] }
	}
	s.avatarFn = fn
}

// RegisterOrResume registers a nickname on first sight, seeding the starting
// balance table, and resumes the existing account on every subsequent call.
// The call is idempotent by nickname: balances and history are never reset.
func (s *Store) RegisterOrResume(nickname string) (*types.Account, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < minNicknameLen {
		return nil, ErrInvalidNickname
	}
	if account, ok := s.accounts[nickname]; ok {
		account.LastActive = s.nowFn()
		return account.Copy(), nil
	}
	account := &types.Account{
		Nickname:   nickname,
		Avatar:     s.avatarFn(),
		Balances:   make(map[string]float64, len(s.seed)),
		LastActive: s.nowFn(),
	}
	for token, amount := range s.seed {
		account.Balances[token] = amount
	}
	s.accounts[nickname] = account
	return account.Copy(), nil
}

// Get returns a copy of the account registered under nickname.
func (s *Store) Get(nickname string) (*types.Account, error) {
	account, ok := s.accounts[nickname]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, nickname)
	}
	return account.Copy(), nil
}

// Exists reports whether the nickname has registered before.
func (s *Store) Exists(nickname string) bool {
	_, ok := s.accounts[nickname]
	return ok
}

// BalanceOf reads an account balance; missing accounts and missing token
// entries both read as zero.
func (s *Store) BalanceOf(nickname, token string) float64 {
	account, ok := s.accounts[nickname]
	if !ok {
		return 0
	}
	return account.Balances[token]
}

// CanCover reports whether the account holds at least amount of token.
func (s *Store) CanCover(nickname, token string, amount float64) bool {
	return s.BalanceOf(nickname, token) >= amount
}

// Debit removes amount of token from the account. It fails with
// ErrInsufficientBalance when the balance cannot cover the amount and leaves
// state untouched in that case.
func (s *Store) Debit(nickname, token string, amount float64) error {
	account, ok := s.accounts[nickname]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, nickname)
	}
	if account.Balances[token] < amount {
		return fmt.Errorf("%w: %s needs %.4f %s, holds %.4f",
			ErrInsufficientBalance, nickname, amount, token, account.Balances[token])
	}
	account.Balances[token] -= amount
	return nil
}

// Credit adds amount of token to the account, creating the token entry if
// absent. Credits always succeed for registered accounts.
func (s *Store) Credit(nickname, token string, amount float64) error {
	account, ok := s.accounts[nickname]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, nickname)
	}
	account.Balances[token] += amount
	return nil
}

// AppendTransaction records one immutable audit entry for the account.
func (s *Store) AppendTransaction(nickname string, tx types.Transaction) types.Transaction {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = s.nowFn()
	}
	s.history[nickname] = append(s.history[nickname], tx)
	return tx
}

// Transactions returns the account's audit trail sorted newest first.
func (s *Store) Transactions(nickname string) []types.Transaction {
	entries := s.history[nickname]
	out := make([]types.Transaction, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Count returns the number of registered accounts.
func (s *Store) Count() int { return len(s.accounts) }
