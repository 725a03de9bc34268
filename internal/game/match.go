package game

import (
	"sync"
	"time"

	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
)

// Status of a match through its lifecycle.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

// End reasons stamped on terminal matches
const (
	EndWin        = "win"
	EndDraw       = "draw"
	EndResign     = "resign"
	EndTimeout    = "timeout"
	EndDisconnect = "disconnect"
	EndStale      = "stale_recovery"
)

// Match is one authoritative game between two players. Players[0] moves
// first. Mutable fields are guarded by mu; the manager takes the lock for
// every transition so moves, timer fires and the sweeper never race each
// other. The settled flag makes termination a one-way door: whichever path
// flips it first owns settlement.
type Match struct {
	ID       string
	GameType rules.GameType
	Players  [2]string
	Stake    int64
	Mode     wallet.Mode

	mu         sync.Mutex
	Status     Status
	State      interface{}
	NextTurn   string
	Winner     string
	EndReason  string
	MoveCount  int
	CreatedAt  time.Time
	LastMoveAt time.Time
	EndedAt    time.Time

	DisconnectedAt [2]*time.Time

	settled  bool
	timerGen uint64
}

// seat returns the index of playerID in Players, or -1.
func (m *Match) seat(playerID string) int {
	for i, p := range m.Players {
		if p == playerID {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether playerID is a participant.
func (m *Match) HasPlayer(playerID string) bool {
	return m.seat(playerID) >= 0
}

// Opponent returns the other participant.
func (m *Match) Opponent(playerID string) string {
	if m.Players[0] == playerID {
		return m.Players[1]
	}
	return m.Players[0]
}

// Snapshot is a player-scoped view of a match, safe to serialize. State has
// already been passed through the ruleset's View so hidden information never
// leaves the server.
type Snapshot struct {
	ID           string         `json:"id"`
	GameType     rules.GameType `json:"game_type"`
	Players      [2]string      `json:"players"`
	Stake        int64          `json:"stake"`
	Mode         wallet.Mode    `json:"mode"`
	Status       Status         `json:"status"`
	State        interface{}    `json:"state"`
	NextTurn     string         `json:"next_turn,omitempty"`
	Winner       string         `json:"winner,omitempty"`
	EndReason    string         `json:"end_reason,omitempty"`
	MoveCount    int            `json:"move_count"`
	CreatedAt    time.Time      `json:"created_at"`
	LastMoveAt   time.Time      `json:"last_move_at"`
	TurnDeadline *time.Time     `json:"turn_deadline,omitempty"`
}

func (m *Match) snapshotLocked(rs rules.Ruleset, viewer string, turnTimer time.Duration) Snapshot {
	snap := Snapshot{
		ID:         m.ID,
		GameType:   m.GameType,
		Players:    m.Players,
		Stake:      m.Stake,
		Mode:       m.Mode,
		Status:     m.Status,
		State:      rs.View(m.State, viewer),
		NextTurn:   m.NextTurn,
		Winner:     m.Winner,
		EndReason:  m.EndReason,
		MoveCount:  m.MoveCount,
		CreatedAt:  m.CreatedAt,
		LastMoveAt: m.LastMoveAt,
	}
	if m.Status == StatusActive {
		deadline := m.LastMoveAt.Add(turnTimer)
		snap.TurnDeadline = &deadline
	}
	return snap
}

// Outcome is the immutable summary of a terminal match handed to settlement
// and record-keeping. Winner is empty for draws and refunds.
type Outcome struct {
	MatchID   string
	GameType  rules.GameType
	Players   [2]string
	Stake     int64
	Mode      wallet.Mode
	Status    Status
	Winner    string
	EndReason string
	MoveCount int
	CreatedAt time.Time
	EndedAt   time.Time
}

func (m *Match) outcomeLocked() Outcome {
	return Outcome{
		MatchID:   m.ID,
		GameType:  m.GameType,
		Players:   m.Players,
		Stake:     m.Stake,
		Mode:      m.Mode,
		Status:    m.Status,
		Winner:    m.Winner,
		EndReason: m.EndReason,
		MoveCount: m.MoveCount,
		CreatedAt: m.CreatedAt,
		EndedAt:   m.EndedAt,
	}
}
