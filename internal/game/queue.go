package game

import (
	"sync"
	"time"

	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
)

// Ticket is one player waiting for an opponent.
type Ticket struct {
	PlayerID string
	GameType rules.GameType
	Stake    int64
	Mode     wallet.Mode
	JoinedAt time.Time
}

type bucketKey struct {
	gameType rules.GameType
	stake    int64
	mode     wallet.Mode
}

// BucketStatus is the waiting depth of one matchmaking bucket.
type BucketStatus struct {
	GameType rules.GameType `json:"game_type"`
	Stake    int64          `json:"stake"`
	Mode     wallet.Mode    `json:"mode"`
	Waiting  int            `json:"waiting"`
}

// Queue holds matchmaking tickets in FIFO order, one bucket per
// (game type, stake, mode) triple. A player holds at most one ticket across
// all buckets.
type Queue struct {
	mu      sync.Mutex
	waiting map[bucketKey][]*Ticket
	byUser  map[string]*Ticket
}

func NewQueue() *Queue {
	return &Queue{
		waiting: make(map[bucketKey][]*Ticket),
		byUser:  make(map[string]*Ticket),
	}
}

func key(t *Ticket) bucketKey {
	return bucketKey{gameType: t.GameType, stake: t.Stake, mode: t.Mode}
}

// Pair matches t against the oldest compatible ticket. If an opponent is
// found it is removed from the queue and returned; otherwise t is enqueued
// and nil is returned. Any earlier ticket the player holds is dropped first,
// so rejoining moves them to the new bucket.
func (q *Queue) Pair(t *Ticket) *Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.leaveLocked(t.PlayerID)

	k := key(t)
	if bucket := q.waiting[k]; len(bucket) > 0 {
		opponent := bucket[0]
		q.waiting[k] = bucket[1:]
		delete(q.byUser, opponent.PlayerID)
		return opponent
	}

	q.waiting[k] = append(q.waiting[k], t)
	q.byUser[t.PlayerID] = t
	return nil
}

// PushFront returns a ticket to the head of its bucket. Used when pairing
// fails through no fault of the ticket holder, so they keep their spot.
func (q *Queue) PushFront(t *Ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byUser[t.PlayerID]; exists {
		return
	}
	k := key(t)
	q.waiting[k] = append([]*Ticket{t}, q.waiting[k]...)
	q.byUser[t.PlayerID] = t
}

// Leave removes a player's ticket, if any.
func (q *Queue) Leave(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.leaveLocked(playerID)
}

func (q *Queue) leaveLocked(playerID string) bool {
	t, exists := q.byUser[playerID]
	if !exists {
		return false
	}
	delete(q.byUser, playerID)

	k := key(t)
	bucket := q.waiting[k]
	for i, entry := range bucket {
		if entry.PlayerID == playerID {
			q.waiting[k] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether playerID holds a ticket.
func (q *Queue) Contains(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, exists := q.byUser[playerID]
	return exists
}

// Position returns the player's 1-indexed position in their bucket, or 0.
func (q *Queue) Position(playerID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, exists := q.byUser[playerID]
	if !exists {
		return 0
	}
	for i, entry := range q.waiting[key(t)] {
		if entry.PlayerID == playerID {
			return i + 1
		}
	}
	return 0
}

// Depths returns the waiting count per non-empty bucket.
func (q *Queue) Depths() []BucketStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []BucketStatus
	for k, bucket := range q.waiting {
		if len(bucket) == 0 {
			continue
		}
		out = append(out, BucketStatus{
			GameType: k.gameType,
			Stake:    k.stake,
			Mode:     k.mode,
			Waiting:  len(bucket),
		})
	}
	return out
}
