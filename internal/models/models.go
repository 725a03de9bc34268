package models

import (
	"database/sql"
	"time"
)

// Player represents a user in the system
type Player struct {
	ID             string       `db:"id" json:"id"`
	PhoneNumber    string       `db:"phone_number" json:"phone_number"`
	DisplayName    string       `db:"display_name" json:"display_name"`
	PinHash        string       `db:"pin_hash" json:"-"`
	RealBalance    int64        `db:"real_balance" json:"real_balance"`
	VirtualBalance int64        `db:"virtual_balance" json:"virtual_balance"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	LastActive     sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// Transaction represents a single balance movement in minor currency units.
// Type is one of ESCROW, PAYOUT, REFUND, FEE.
type Transaction struct {
	ID           string    `db:"id" json:"id"`
	PlayerID     string    `db:"player_id" json:"player_id"`
	Type         string    `db:"transaction_type" json:"transaction_type"`
	Amount       int64     `db:"amount" json:"amount"`
	CurrencyMode string    `db:"currency_mode" json:"currency_mode"`
	MatchID      string    `db:"match_id" json:"match_id,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AuditEvent is a row in the audit log
type AuditEvent struct {
	ID         string         `db:"id" json:"id"`
	ActorID    sql.NullString `db:"actor_id" json:"actor_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	ResourceID string         `db:"resource_id" json:"resource_id"`
	Details    string         `db:"details" json:"details"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// MatchRecord is the persisted summary of a terminal match. It feeds the
// rolling-window anti-abuse queries and player stats.
type MatchRecord struct {
	ID           string         `db:"id" json:"id"`
	GameType     string         `db:"game_type" json:"game_type"`
	Player1ID    string         `db:"player1_id" json:"player1_id"`
	Player2ID    string         `db:"player2_id" json:"player2_id"`
	StakeAmount  int64          `db:"stake_amount" json:"stake_amount"`
	CurrencyMode string         `db:"currency_mode" json:"currency_mode"`
	Status       string         `db:"status" json:"status"`
	WinnerID     sql.NullString `db:"winner_id" json:"winner_id,omitempty"`
	EndReason    string         `db:"end_reason" json:"end_reason"`
	MoveCount    int            `db:"move_count" json:"move_count"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	SettledAt    sql.NullTime   `db:"settled_at" json:"settled_at,omitempty"`
}

// AbuseFlag is an advisory anti-abuse marker. Flags never block settlement.
type AbuseFlag struct {
	ID        string    `db:"id" json:"id"`
	PlayerID  string    `db:"player_id" json:"player_id"`
	FlagType  string    `db:"flag_type" json:"flag_type"`
	MatchID   string    `db:"match_id" json:"match_id"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
