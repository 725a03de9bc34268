package game

import (
	"context"
	"testing"
	"time"

	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
)

// Virtual matches must never reach the heuristic queries. The recorder here
// has no database, so touching one would panic the test.
func TestAbuseChecksIgnoreVirtualMatches(t *testing.T) {
	r := &SQLRecorder{cfg: &config.Config{
		FastWinSeconds:         10,
		AbortFlagThreshold:     3,
		CollusionFlagThreshold: 5,
	}}

	now := time.Now()
	r.checkAbuse(context.Background(), Outcome{
		MatchID:   "m1",
		GameType:  rules.TicTacToe,
		Players:   [2]string{"alice", "bob"},
		Stake:     100,
		Mode:      wallet.ModeVirtual,
		Status:    StatusCompleted,
		Winner:    "alice",
		EndReason: EndResign,
		CreatedAt: now.Add(-2 * time.Second),
		EndedAt:   now,
	})
}
