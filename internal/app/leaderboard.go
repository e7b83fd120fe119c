package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quizmaster-service/internal/domain"
)

// LeaderboardSource is the ranking query owned by the persistence layer:
// for each user, the sum of their best score per quiz, descending.
type LeaderboardSource interface {
	BestScoreTotals(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// LeaderboardHub fans out scoreboard snapshots to subscribers. Submissions
// trigger Refresh, which re-queries the source and broadcasts.
type LeaderboardHub struct {
	source LeaderboardSource
	now    func() time.Time

	mu          sync.Mutex
	latest      domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(source LeaderboardSource) *LeaderboardHub {
	return NewLeaderboardHubWithClock(source, time.Now)
}

// NewLeaderboardHubWithClock allows deterministic timestamps in tests.
func NewLeaderboardHubWithClock(source LeaderboardSource, now func() time.Time) *LeaderboardHub {
	return &LeaderboardHub{
		source:      source,
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel that receives scoreboard updates, primed with
// the current snapshot. The caller must invoke cancel to avoid leaks.
func (h *LeaderboardHub) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	if err := h.Refresh(ctx); err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	initial := h.latest
	h.mu.Unlock()

	ch <- initial

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}

// Snapshot returns the current scoreboard, querying the source directly.
func (h *LeaderboardHub) Snapshot(ctx context.Context) (domain.Leaderboard, error) {
	entries, err := h.source.BestScoreTotals(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: h.now()}, nil
}

// Refresh re-queries the ranking and broadcasts to all subscribers. Failures
// are logged, not propagated to the submitting user: a stale scoreboard must
// not fail a submission.
func (h *LeaderboardHub) Refresh(ctx context.Context) error {
	lb, err := h.Snapshot(ctx)
	if err != nil {
		log.Printf("leaderboard refresh failed: %v", err)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = lb
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so a slow client never blocks broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return nil
}
