package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrPlayerNotFound    = errors.New("player not found")
)

// InsufficientFundsError identifies which player could not cover a debit so
// callers can requeue the other side.
type InsufficientFundsError struct {
	PlayerID string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("player %s: insufficient funds", e.PlayerID)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Mode selects which of the two balance ledgers a movement applies to.
type Mode string

const (
	ModeReal    Mode = "real"
	ModeVirtual Mode = "virtual"
)

// Transaction types written to the ledger
const (
	TxEscrow  = "ESCROW"
	TxPayout  = "PAYOUT"
	TxRefund  = "REFUND"
	TxFee     = "FEE"
	TxDeposit = "DEPOSIT"
)

// Service moves money between player balances and the transaction ledger.
// Every balance mutation is an atomic single-statement increment/decrement
// guarded by the balance check in the WHERE clause; there is no
// read-modify-write at the application layer.
type Service struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

func balanceColumn(mode Mode) string {
	if mode == ModeVirtual {
		return "virtual_balance"
	}
	return "real_balance"
}

// Escrow debits the stake from both players in a single transaction. If either
// player cannot cover the stake, nothing is debited and ErrInsufficientFunds
// is returned wrapped with the failing player id.
func (s *Service) Escrow(ctx context.Context, matchID string, players [2]string, amount int64, mode Mode) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("escrow begin: %w", err)
	}
	defer tx.Rollback()

	for _, playerID := range players {
		if err := debitTx(ctx, tx, playerID, amount, mode); err != nil {
			return err
		}
		if err := insertTx(ctx, tx, playerID, TxEscrow, -amount, mode, matchID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("escrow commit: %w", err)
	}

	log.Printf("[WALLET] Escrowed %d (%s) from %s and %s for match %s", amount, mode, players[0], players[1], matchID)
	return nil
}

// Payout credits the net winnings to the winner and records the withheld
// platform fee, all in one transaction. fee may be zero (virtual matches).
func (s *Service) Payout(ctx context.Context, matchID, winnerID string, net, fee int64, mode Mode) error {
	if net <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("payout begin: %w", err)
	}
	defer tx.Rollback()

	if err := creditTx(ctx, tx, winnerID, net, mode); err != nil {
		return err
	}
	if err := insertTx(ctx, tx, winnerID, TxPayout, net, mode, matchID); err != nil {
		return err
	}
	if fee > 0 {
		if err := insertTx(ctx, tx, winnerID, TxFee, -fee, mode, matchID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("payout commit: %w", err)
	}

	log.Printf("[WALLET] Payout %d (fee %d, %s) to %s for match %s", net, fee, mode, winnerID, matchID)
	return nil
}

// RefundBoth returns the stake to each player in one transaction. Used for
// draws, cancellations and sweeper recoveries; no fee is retained.
func (s *Service) RefundBoth(ctx context.Context, matchID string, players [2]string, amount int64, mode Mode) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("refund begin: %w", err)
	}
	defer tx.Rollback()

	for _, playerID := range players {
		if err := creditTx(ctx, tx, playerID, amount, mode); err != nil {
			return err
		}
		if err := insertTx(ctx, tx, playerID, TxRefund, amount, mode, matchID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("refund commit: %w", err)
	}

	log.Printf("[WALLET] Refunded %d (%s) to %s and %s for match %s", amount, mode, players[0], players[1], matchID)
	return nil
}

// Credit adds funds outside the match lifecycle (seeding, top-ups).
func (s *Service) Credit(ctx context.Context, playerID string, amount int64, mode Mode) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("credit begin: %w", err)
	}
	defer tx.Rollback()

	if err := creditTx(ctx, tx, playerID, amount, mode); err != nil {
		return err
	}
	if err := insertTx(ctx, tx, playerID, TxDeposit, amount, mode, ""); err != nil {
		return err
	}

	return tx.Commit()
}

// Balance returns both ledgers for a player.
func (s *Service) Balance(ctx context.Context, playerID string) (real int64, virtual int64, err error) {
	row := s.db.QueryRowxContext(ctx, `SELECT real_balance, virtual_balance FROM players WHERE id = $1`, playerID)
	if err := row.Scan(&real, &virtual); err != nil {
		return 0, 0, ErrPlayerNotFound
	}
	return real, virtual, nil
}

func debitTx(ctx context.Context, tx *sqlx.Tx, playerID string, amount int64, mode Mode) error {
	col := balanceColumn(mode)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE players SET %s = %s - $1 WHERE id = $2 AND %s >= $1`, col, col, col),
		amount, playerID)
	if err != nil {
		return fmt.Errorf("debit %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &InsufficientFundsError{PlayerID: playerID}
	}
	return nil
}

func creditTx(ctx context.Context, tx *sqlx.Tx, playerID string, amount int64, mode Mode) error {
	col := balanceColumn(mode)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE players SET %s = %s + $1 WHERE id = $2`, col, col),
		amount, playerID)
	if err != nil {
		return fmt.Errorf("credit %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("credit %s: %w", playerID, ErrPlayerNotFound)
	}
	return nil
}

func insertTx(ctx context.Context, tx *sqlx.Tx, playerID, txType string, amount int64, mode Mode, matchID string) error {
	var match interface{}
	if matchID != "" {
		match = matchID
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, player_id, transaction_type, amount, currency_mode, match_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 'COMPLETED', NOW())`,
		uuid.NewString(), playerID, txType, amount, string(mode), match)
	if err != nil {
		return fmt.Errorf("ledger insert (%s %s): %w", txType, playerID, err)
	}
	return nil
}
