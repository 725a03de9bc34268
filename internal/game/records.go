package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/turnstake/backend/internal/audit"
	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/wallet"
)

// Abuse flag types raised by the heuristics. All advisory; nothing here ever
// blocks or reverses a settlement.
const (
	FlagFastWin       = "fast_win"
	FlagAbortChurn    = "abort_churn"
	FlagRepeatPairing = "repeat_pairing"
)

// SQLRecorder persists terminal match summaries to match_records and runs
// the rolling-window anti-abuse heuristics over them.
type SQLRecorder struct {
	db    *sqlx.DB
	audit Auditor
	cfg   *config.Config
}

func NewSQLRecorder(db *sqlx.DB, auditor Auditor, cfg *config.Config) *SQLRecorder {
	return &SQLRecorder{db: db, audit: auditor, cfg: cfg}
}

// RecordOutcome inserts the match summary and checks the heuristics.
// Failures are logged; settlement has already happened and is never undone.
func (r *SQLRecorder) RecordOutcome(ctx context.Context, o Outcome) {
	if r == nil || r.db == nil {
		return
	}

	var winner interface{}
	if o.Winner != "" {
		winner = o.Winner
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO match_records (id, game_type, player1_id, player2_id, stake_amount, currency_mode, status, winner_id, end_reason, move_count, created_at, settled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.MatchID, string(o.GameType), o.Players[0], o.Players[1], o.Stake, string(o.Mode),
		string(o.Status), winner, o.EndReason, o.MoveCount, o.CreatedAt, o.EndedAt)
	if err != nil {
		log.Printf("[RECORDS] Failed to insert match record %s: %v", o.MatchID, err)
	}

	r.checkAbuse(ctx, o)
}

func (r *SQLRecorder) checkAbuse(ctx context.Context, o Outcome) {
	// Only real-money matches feed the heuristics
	if o.Mode != wallet.ModeReal {
		return
	}

	// Suspiciously fast decisive win
	if o.Winner != "" && o.EndReason == EndWin {
		duration := o.EndedAt.Sub(o.CreatedAt)
		if duration < time.Duration(r.cfg.FastWinSeconds)*time.Second {
			r.flag(ctx, o.Winner, FlagFastWin, o.MatchID,
				fmt.Sprintf("match won in %s", duration.Round(time.Millisecond)))
		}
	}

	// Abort churn: a player repeatedly walking away from live matches
	if o.Winner != "" && (o.EndReason == EndResign || o.EndReason == EndTimeout || o.EndReason == EndDisconnect) {
		aborter := o.Players[0]
		if aborter == o.Winner {
			aborter = o.Players[1]
		}
		var aborts int
		err := r.db.GetContext(ctx, &aborts,
			`SELECT COUNT(*) FROM match_records
			 WHERE (player1_id = $1 OR player2_id = $1)
			   AND winner_id IS NOT NULL AND winner_id <> $1
			   AND end_reason IN ('resign', 'timeout', 'disconnect')
			   AND created_at > NOW() - INTERVAL '24 hours'`, aborter)
		if err != nil {
			log.Printf("[RECORDS] Abort churn query failed for %s: %v", aborter, err)
		} else if aborts > r.cfg.AbortFlagThreshold {
			r.flag(ctx, aborter, FlagAbortChurn, o.MatchID,
				fmt.Sprintf("%d aborted matches in 24h", aborts))
		}
	}

	// Repeat pairing: the same two players grinding matches against each other
	var pairings int
	err := r.db.GetContext(ctx, &pairings,
		`SELECT COUNT(*) FROM match_records
		 WHERE ((player1_id = $1 AND player2_id = $2) OR (player1_id = $2 AND player2_id = $1))
		   AND created_at > NOW() - INTERVAL '24 hours'`, o.Players[0], o.Players[1])
	if err != nil {
		log.Printf("[RECORDS] Repeat pairing query failed for match %s: %v", o.MatchID, err)
	} else if pairings > r.cfg.CollusionFlagThreshold {
		details := fmt.Sprintf("%d matches against the same opponent in 24h", pairings)
		r.flag(ctx, o.Players[0], FlagRepeatPairing, o.MatchID, details)
		r.flag(ctx, o.Players[1], FlagRepeatPairing, o.MatchID, details)
	}
}

func (r *SQLRecorder) flag(ctx context.Context, playerID, flagType, matchID, details string) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO abuse_flags (id, player_id, flag_type, match_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		uuid.NewString(), playerID, flagType, matchID, details)
	if err != nil {
		log.Printf("[RECORDS] Failed to insert abuse flag %s for %s: %v", flagType, playerID, err)
		return
	}

	log.Printf("[ABUSE] Flagged %s: %s (%s)", playerID, flagType, details)
	if r.audit != nil {
		r.audit.Record(ctx, audit.Event{
			ActorID:    playerID,
			Action:     audit.ActionAbuseFlagged,
			ResourceID: matchID,
			Details:    map[string]interface{}{"flag_type": flagType, "details": details},
		})
	}
}
