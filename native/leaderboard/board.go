package leaderboard

import (
	"sort"

	"intentsim/core/types"
)

// Board is an append-or-increment score ledger keyed by participant nickname.
// Scores never decay and entries are never removed, so any identity's score is
// monotonically non-decreasing.
type Board struct {
	entries []*types.LeaderboardEntry
	index   map[string]*types.LeaderboardEntry
}

// NewBoard constructs an empty scoreboard.
func NewBoard() *Board {
	return &Board{index: make(map[string]*types.LeaderboardEntry)}
}

// Award adds points to the identity's score, creating the entry on first
// sight. The avatar is only recorded at creation; later awards keep the
// original.
func (b *Board) Award(nickname, avatar string, points int) {
	if points <= 0 {
		return
	}
	if entry, ok := b.index[nickname]; ok {
		entry.Score += points
		return
	}
	entry := &types.LeaderboardEntry{Nickname: nickname, Avatar: avatar, Score: points}
	b.entries = append(b.entries, entry)
	b.index[nickname] = entry
}

// Score returns the identity's current score; unknown identities read as zero.
func (b *Board) Score(nickname string) int {
	if entry, ok := b.index[nickname]; ok {
		return entry.Score
	}
	return 0
}

// Sorted returns the scoreboard sorted descending by score, stable by
// insertion order for ties.
func (b *Board) Sorted() []types.LeaderboardEntry {
	out := make([]types.LeaderboardEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		out = append(out, *entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Len returns the number of scoreboard entries.
func (b *Board) Len() int { return len(b.entries) }
