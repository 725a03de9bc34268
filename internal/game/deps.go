package game

import (
	"context"

	"github.com/turnstake/backend/internal/audit"
	"github.com/turnstake/backend/internal/models"
	"github.com/turnstake/backend/internal/wallet"
)

// Wallet is the slice of the wallet service the match core depends on.
type Wallet interface {
	Escrow(ctx context.Context, matchID string, players [2]string, amount int64, mode wallet.Mode) error
	Payout(ctx context.Context, matchID, winnerID string, net, fee int64, mode wallet.Mode) error
	RefundBoth(ctx context.Context, matchID string, players [2]string, amount int64, mode wallet.Mode) error
}

// Auditor records audit events, best-effort.
type Auditor interface {
	Record(ctx context.Context, e audit.Event)
}

// Identity resolves player records. The sweeper verifies both participants
// still resolve before it moves any money.
type Identity interface {
	GetUser(ctx context.Context, id string) (*models.Player, error)
}

// Notifier delivers an event to one player. Implementations must not block;
// delivery to an offline player is a no-op.
type Notifier interface {
	Notify(userID string, e Event)
}

// Recorder persists terminal match summaries and runs the advisory
// anti-abuse heuristics. Best-effort; never blocks settlement.
type Recorder interface {
	RecordOutcome(ctx context.Context, o Outcome)
}
