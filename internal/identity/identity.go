package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/turnstake/backend/internal/models"
)

var ErrNotFound = errors.New("player not found")

// Service looks up player records. The match core never owns user data; this
// is its read-only window into the players table.
type Service struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// GetUser returns the player row for id.
func (s *Service) GetUser(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p,
		`SELECT id, phone_number, display_name, pin_hash, real_balance, virtual_balance, is_active, created_at, last_active
		 FROM players WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return &p, nil
}

// GetUserByPhone returns the player row for a phone number (login path).
func (s *Service) GetUserByPhone(ctx context.Context, phone string) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p,
		`SELECT id, phone_number, display_name, pin_hash, real_balance, virtual_balance, is_active, created_at, last_active
		 FROM players WHERE phone_number = $1`, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get player by phone: %w", err)
	}
	return &p, nil
}

// TouchLastActive updates the player's last_active timestamp, best-effort.
func (s *Service) TouchLastActive(ctx context.Context, id string) {
	_, _ = s.db.ExecContext(ctx, `UPDATE players SET last_active = NOW() WHERE id = $1`, id)
}
