package leaderboard

import "testing"

func TestAwardCreatesAndIncrements(t *testing.T) {
	board := NewBoard()
	board.Award("alice", "shrimp1", 1)
	board.Award("alice", "shrimp1", 2)
	if got := board.Score("alice"); got != 3 {
		t.Fatalf("expected score 3, got %d", got)
	}
	if board.Len() != 1 {
		t.Fatalf("award duplicated entry")
	}
}

func TestAwardIgnoresNonPositivePoints(t *testing.T) {
	board := NewBoard()
	board.Award("alice", "shrimp1", 0)
	board.Award("alice", "shrimp1", -2)
	if board.Len() != 0 {
		t.Fatalf("non-positive awards must not create entries")
	}
}

func TestScoresAreMonotonic(t *testing.T) {
	board := NewBoard()
	last := 0
	for i := 0; i < 10; i++ {
		board.Award("alice", "shrimp1", 1)
		if got := board.Score("alice"); got < last {
			t.Fatalf("score decreased: %d -> %d", last, got)
		} else {
			last = got
		}
	}
}

func TestSortedDescendingStableTies(t *testing.T) {
	board := NewBoard()
	board.Award("alice", "shrimp1", 1)
	board.Award("bob", "shrimp2", 3)
	board.Award("carol", "shrimp3", 1)

	entries := board.Sorted()
	if entries[0].Nickname != "bob" {
		t.Fatalf("expected bob first, got %s", entries[0].Nickname)
	}
	// alice and carol tie at 1; insertion order breaks the tie.
	if entries[1].Nickname != "alice" || entries[2].Nickname != "carol" {
		t.Fatalf("tie break not stable: %s, %s", entries[1].Nickname, entries[2].Nickname)
	}
}

func TestAvatarStickyAfterFirstAward(t *testing.T) {
	board := NewBoard()
	board.Award("alice", "shrimp1", 1)
	board.Award("alice", "shrimp3", 1)
	if entries := board.Sorted(); entries[0].Avatar != "shrimp1" {
		t.Fatalf("avatar changed on later award: %s", entries[0].Avatar)
	}
}
