package game

import (
	"context"
	"fmt"

	"github.com/turnstake/backend/internal/audit"
	"github.com/turnstake/backend/internal/wallet"
)

// Settler moves escrowed funds out of a finished match. The manager owns the
// once-guard (Match.settled), so each settle method fires at most once per
// match.
type Settler struct {
	wallet     Wallet
	audit      Auditor
	recorder   Recorder
	feePercent int
}

func NewSettler(w Wallet, a Auditor, r Recorder, feePercent int) *Settler {
	return &Settler{wallet: w, audit: a, recorder: r, feePercent: feePercent}
}

// SettleWin pays the pot to the winner, minus the platform fee on real-money
// matches. Virtual matches pay the full pot. Returns the net payout and fee
// for the match_ended event.
func (s *Settler) SettleWin(ctx context.Context, o Outcome) (net, fee int64, err error) {
	pot := o.Stake * 2
	if o.Mode == wallet.ModeReal && s.feePercent > 0 {
		fee = pot * int64(s.feePercent) / 100
	}
	net = pot - fee

	if err := s.wallet.Payout(ctx, o.MatchID, o.Winner, net, fee, o.Mode); err != nil {
		return 0, 0, fmt.Errorf("settle win %s: %w", o.MatchID, err)
	}

	s.audit.Record(ctx, audit.Event{
		Action:     audit.ActionPayout,
		ResourceID: o.MatchID,
		Details: map[string]interface{}{
			"winner":     o.Winner,
			"net":        net,
			"fee":        fee,
			"mode":       string(o.Mode),
			"end_reason": o.EndReason,
		},
	})
	if fee > 0 {
		s.audit.Record(ctx, audit.Event{
			Action:     audit.ActionPlatformFee,
			ResourceID: o.MatchID,
			Details:    map[string]interface{}{"fee": fee, "winner": o.Winner},
		})
	}

	s.record(ctx, o)
	return net, fee, nil
}

// SettleRefund returns both stakes, no fee retained. action distinguishes
// ordinary refunds (draws) from sweeper-forced ones.
func (s *Settler) SettleRefund(ctx context.Context, o Outcome, action string) error {
	if err := s.wallet.RefundBoth(ctx, o.MatchID, o.Players, o.Stake, o.Mode); err != nil {
		return fmt.Errorf("settle refund %s: %w", o.MatchID, err)
	}

	s.audit.Record(ctx, audit.Event{
		Action:     action,
		ResourceID: o.MatchID,
		Details: map[string]interface{}{
			"players":    o.Players[:],
			"stake":      o.Stake,
			"mode":       string(o.Mode),
			"end_reason": o.EndReason,
		},
	})

	s.record(ctx, o)
	return nil
}

func (s *Settler) record(ctx context.Context, o Outcome) {
	if s.recorder != nil {
		s.recorder.RecordOutcome(ctx, o)
	}
}
