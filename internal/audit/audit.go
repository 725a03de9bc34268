package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Event is a single audit record. ActorID is empty for system-originated
// events (timers, sweeper).
type Event struct {
	ActorID    string
	Action     string
	ResourceID string
	Details    map[string]interface{}
	Timestamp  time.Time
}

// Actions recorded by the match core
const (
	ActionEscrow       = "match_escrow"
	ActionPayout       = "match_payout"
	ActionPlatformFee  = "platform_fee"
	ActionRefund       = "match_refund"
	ActionForceRefund  = "match_force_refund"
	ActionAbuseFlagged = "abuse_flagged"
)

// Service writes audit events. Failures are logged and swallowed; an audit
// write must never roll back or block a settlement.
type Service struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Record persists an audit event, best-effort.
func (s *Service) Record(ctx context.Context, e Event) {
	if s == nil || s.db == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	details, err := json.Marshal(e.Details)
	if err != nil {
		details = []byte("{}")
	}

	var actor interface{}
	if e.ActorID != "" {
		actor = e.ActorID
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor_id, action, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		uuid.NewString(), actor, e.Action, e.ResourceID, string(details), e.Timestamp)
	if err != nil {
		log.Printf("[AUDIT] Failed to record %s for %s: %v", e.Action, e.ResourceID, err)
	}
}
