package game

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turnstake/backend/internal/audit"
	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
)

var (
	ErrAlreadyInMatch  = errors.New("player already in a match")
	ErrNotInMatch      = errors.New("player not in an active match")
	ErrMatchNotFound   = errors.New("match not found")
	ErrNotAParticipant = errors.New("not a participant in this match")
	ErrStakeTooLow     = errors.New("stake below minimum")
	ErrInvalidMode     = errors.New("invalid currency mode")
)

const maxChatLength = 500

// Deps bundles everything the manager needs. Wallet, Identity, Audit and
// Notifier are interfaces so the match lifecycle is testable without a
// database or a socket.
type Deps struct {
	Config   *config.Config
	Registry *rules.Registry
	Wallet   Wallet
	Identity Identity
	Audit    Auditor
	Notifier Notifier
	Settler  *Settler
	Rand     *rand.Rand
}

// Manager drives the full match lifecycle: matchmaking, escrow, move
// application, turn timers, disconnect forfeits and settlement. It is the
// only writer of match state; the transport layer calls in and receives
// events back through the Notifier.
type Manager struct {
	cfg      *config.Config
	registry *rules.Registry
	store    *Store
	queue    *Queue
	timers   *TimerSupervisor
	settler  *Settler
	wallet   Wallet
	identity Identity
	notifier Notifier
	audit    Auditor

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewManager(d Deps) *Manager {
	return &Manager{
		cfg:      d.Config,
		registry: d.Registry,
		store:    NewStore(),
		queue:    NewQueue(),
		timers:   NewTimerSupervisor(),
		settler:  d.Settler,
		wallet:   d.Wallet,
		identity: d.Identity,
		notifier: d.Notifier,
		audit:    d.Audit,
		rng:      d.Rand,
	}
}

func (gm *Manager) turnTimer() time.Duration {
	return time.Duration(gm.cfg.TurnTimerSeconds) * time.Second
}

// JoinQueue validates the request and either enqueues the player or, if an
// opponent is waiting, escrows both stakes and starts the match. Results are
// delivered through the Notifier (queue_waiting or match_found); the
// returned error covers only the caller's own request being rejected.
func (gm *Manager) JoinQueue(ctx context.Context, playerID string, gameType rules.GameType, stake int64, mode wallet.Mode) error {
	if !gm.registry.Valid(gameType) {
		return rules.ErrUnknownGame
	}
	if mode != wallet.ModeReal && mode != wallet.ModeVirtual {
		return ErrInvalidMode
	}
	if stake < int64(gm.cfg.MinStakeAmount) {
		return ErrStakeTooLow
	}
	if _, inMatch := gm.store.ForPlayer(playerID); inMatch {
		return ErrAlreadyInMatch
	}

	// Cheap pre-check so a broke player never enters the queue. Escrow
	// remains the authority; balances can still change while waiting.
	if p, err := gm.identity.GetUser(ctx, playerID); err == nil {
		balance := p.RealBalance
		if mode == wallet.ModeVirtual {
			balance = p.VirtualBalance
		}
		if balance < stake {
			return wallet.ErrInsufficientFunds
		}
	}

	ticket := &Ticket{
		PlayerID: playerID,
		GameType: gameType,
		Stake:    stake,
		Mode:     mode,
		JoinedAt: time.Now(),
	}
	// Pair drops any earlier ticket first, so a rejoin re-buckets the player
	opponent := gm.queue.Pair(ticket)
	if opponent == nil {
		log.Printf("[MATCHMAKER] %s queued for %s stake=%d mode=%s", playerID, gameType, stake, mode)
		gm.notifier.Notify(playerID, Event{
			Type: EventQueueWaiting,
			Data: map[string]interface{}{"position": gm.queue.Position(playerID)},
		})
		return nil
	}

	return gm.createMatch(ctx, opponent, ticket)
}

// CancelQueue withdraws the player's matchmaking ticket.
func (gm *Manager) CancelQueue(playerID string) bool {
	if gm.queue.Leave(playerID) {
		log.Printf("[MATCHMAKER] %s left the queue", playerID)
		return true
	}
	return false
}

func (gm *Manager) createMatch(ctx context.Context, opponent, joiner *Ticket) error {
	rs, err := gm.registry.Get(joiner.GameType)
	if err != nil {
		gm.queue.PushFront(opponent)
		return err
	}

	players := [2]string{opponent.PlayerID, joiner.PlayerID}
	// Coin flip for first mover
	gm.rngMu.Lock()
	if gm.rng.Intn(2) == 1 {
		players[0], players[1] = players[1], players[0]
	}
	gm.rngMu.Unlock()

	matchID := uuid.NewString()
	if err := gm.wallet.Escrow(ctx, matchID, players, joiner.Stake, joiner.Mode); err != nil {
		return gm.abortPairing(ctx, opponent, joiner, err)
	}
	gm.audit.Record(ctx, audit.Event{
		Action:     audit.ActionEscrow,
		ResourceID: matchID,
		Details: map[string]interface{}{
			"players": players[:],
			"stake":   joiner.Stake,
			"mode":    string(joiner.Mode),
		},
	})

	now := time.Now()
	m := &Match{
		ID:         matchID,
		GameType:   joiner.GameType,
		Players:    players,
		Stake:      joiner.Stake,
		Mode:       joiner.Mode,
		Status:     StatusActive,
		State:      rs.InitialState(players),
		NextTurn:   players[0],
		CreatedAt:  now,
		LastMoveAt: now,
	}
	gm.store.Add(m)

	m.mu.Lock()
	gen := m.timerGen
	m.mu.Unlock()
	gm.armTurnTimer(m.ID, gen)

	log.Printf("[MATCHMAKER] Match %s created: %s vs %s (%s stake=%d mode=%s)",
		matchID, players[0], players[1], joiner.GameType, joiner.Stake, joiner.Mode)

	for _, pid := range players {
		gm.notifier.Notify(pid, Event{Type: EventMatchFound, MatchID: matchID, Data: gm.snapshotFor(m, pid)})
	}
	deadline := now.Add(gm.turnTimer())
	gm.notifier.Notify(players[0], Event{
		Type:    EventYourTurn,
		MatchID: matchID,
		Data:    map[string]interface{}{"deadline": deadline},
	})
	return nil
}

// abortPairing unwinds a failed escrow. Nothing has been debited (escrow is
// all-or-nothing), so the only cleanup is deciding who keeps their queue
// spot.
func (gm *Manager) abortPairing(ctx context.Context, opponent, joiner *Ticket, escrowErr error) error {
	var broke *wallet.InsufficientFundsError
	if errors.As(escrowErr, &broke) && broke.PlayerID == opponent.PlayerID {
		// The waiting player went broke while queued. The joiner inherits the
		// head of the queue; the opponent is told and dropped.
		gm.queue.PushFront(joiner)
		log.Printf("[MATCHMAKER] Pairing aborted: %s cannot cover stake; %s requeued at front", opponent.PlayerID, joiner.PlayerID)
		gm.notifier.Notify(opponent.PlayerID, Event{
			Type: EventError,
			Data: map[string]interface{}{"code": "insufficient_funds", "message": "insufficient funds for stake"},
		})
		gm.notifier.Notify(joiner.PlayerID, Event{
			Type: EventQueueWaiting,
			Data: map[string]interface{}{"position": gm.queue.Position(joiner.PlayerID)},
		})
		return nil
	}

	// The joiner is at fault, or the failure is transient. Either way the
	// waiting player keeps their spot and the joiner gets the error.
	gm.queue.PushFront(opponent)
	log.Printf("[MATCHMAKER] Pairing aborted for %s and %s: %v", opponent.PlayerID, joiner.PlayerID, escrowErr)
	return escrowErr
}

// ApplyMove runs one move through the ruleset for the match the player is
// in. Rejected moves leave all state untouched; accepted moves reset the
// turn timer or, on a terminal result, settle the match.
func (gm *Manager) ApplyMove(ctx context.Context, playerID string, move json.RawMessage) error {
	m, ok := gm.store.ForPlayer(playerID)
	if !ok {
		return ErrNotInMatch
	}
	rs, err := gm.registry.Get(m.GameType)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.Status != StatusActive {
		m.mu.Unlock()
		return rules.ErrGameOver
	}

	res, err := rs.ApplyMove(m.State, playerID, move)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.State = res.State
	m.MoveCount++
	m.LastMoveAt = time.Now()

	if res.Terminal {
		winner, reason := "", EndDraw
		if res.Winner != rules.Draw {
			winner, reason = res.Winner, EndWin
		}
		outcome, first := gm.endLocked(m, StatusCompleted, winner, reason)
		m.mu.Unlock()
		if !first {
			return nil
		}
		gm.broadcastMove(m)
		if reason == EndWin {
			gm.settleWin(ctx, m, outcome)
		} else {
			gm.settleRefund(ctx, m, outcome, audit.ActionRefund)
		}
		return nil
	}

	m.NextTurn = res.NextTurn
	m.timerGen++
	gen := m.timerGen
	deadline := m.LastMoveAt.Add(gm.turnTimer())
	m.mu.Unlock()

	gm.armTurnTimer(m.ID, gen)
	gm.broadcastMove(m)
	gm.notifier.Notify(res.NextTurn, Event{
		Type:    EventYourTurn,
		MatchID: m.ID,
		Data:    map[string]interface{}{"deadline": deadline},
	})
	return nil
}

// Resign forfeits the match; the opponent wins the pot.
func (gm *Manager) Resign(ctx context.Context, playerID string) error {
	m, ok := gm.store.ForPlayer(playerID)
	if !ok {
		return ErrNotInMatch
	}

	m.mu.Lock()
	if m.Status != StatusActive {
		m.mu.Unlock()
		return rules.ErrGameOver
	}
	winner := m.Opponent(playerID)
	outcome, first := gm.endLocked(m, StatusCompleted, winner, EndResign)
	m.mu.Unlock()
	if !first {
		return nil
	}

	log.Printf("[MATCH] %s resigned match %s; %s wins", playerID, m.ID, winner)
	gm.settleWin(ctx, m, outcome)
	return nil
}

// Chat relays a message to the opponent. Messages are not persisted.
func (gm *Manager) Chat(playerID, text string) error {
	if text == "" {
		return nil
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
	}
	m, ok := gm.store.ForPlayer(playerID)
	if !ok {
		return ErrNotInMatch
	}
	gm.notifier.Notify(m.Opponent(playerID), Event{
		Type:    EventChatMessage,
		MatchID: m.ID,
		Data:    map[string]interface{}{"from": playerID, "text": text},
	})
	return nil
}

// HandleDisconnect is called by the transport when a player's connection
// drops. A queued ticket is cancelled outright; a live match starts the
// disconnect-forfeit clock.
func (gm *Manager) HandleDisconnect(playerID string) {
	if gm.queue.Leave(playerID) {
		log.Printf("[MATCH] %s disconnected while queued; ticket dropped", playerID)
	}

	m, ok := gm.store.ForPlayer(playerID)
	if !ok {
		return
	}

	m.mu.Lock()
	seat := m.seat(playerID)
	if m.Status != StatusActive || seat < 0 {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	m.DisconnectedAt[seat] = &now
	m.mu.Unlock()

	grace := time.Duration(gm.cfg.DisconnectGraceSeconds) * time.Second
	matchID := m.ID
	gm.timers.Arm(disconnectKey(matchID, playerID), 0, grace, func() {
		gm.onDisconnectExpired(matchID, playerID)
	})

	log.Printf("[MATCH] %s disconnected from match %s; forfeit in %s", playerID, matchID, grace)
	gm.notifier.Notify(m.Opponent(playerID), Event{
		Type:    EventOpponentDisconnected,
		MatchID: matchID,
		Data:    map[string]interface{}{"grace_seconds": gm.cfg.DisconnectGraceSeconds},
	})
}

// HandleReconnect clears the disconnect clock and returns a fresh snapshot
// for resync. ok is false when the player has no live match.
func (gm *Manager) HandleReconnect(playerID string) (Snapshot, bool) {
	m, found := gm.store.ForPlayer(playerID)
	if !found {
		return Snapshot{}, false
	}

	m.mu.Lock()
	if seat := m.seat(playerID); seat >= 0 {
		m.DisconnectedAt[seat] = nil
	}
	m.mu.Unlock()

	gm.timers.Cancel(disconnectKey(m.ID, playerID))
	log.Printf("[MATCH] %s reconnected to match %s", playerID, m.ID)
	gm.notifier.Notify(m.Opponent(playerID), Event{Type: EventOpponentReconnected, MatchID: m.ID})
	return gm.snapshotFor(m, playerID), true
}

// MatchStatus returns a viewer-scoped snapshot for the status poll endpoint.
func (gm *Manager) MatchStatus(matchID, viewerID string) (Snapshot, error) {
	m, ok := gm.store.Get(matchID)
	if !ok {
		return Snapshot{}, ErrMatchNotFound
	}
	if !m.HasPlayer(viewerID) {
		return Snapshot{}, ErrNotAParticipant
	}
	return gm.snapshotFor(m, viewerID), nil
}

// MatchForPlayer returns the snapshot of the player's live match, if any.
func (gm *Manager) MatchForPlayer(playerID string) (Snapshot, bool) {
	m, ok := gm.store.ForPlayer(playerID)
	if !ok {
		return Snapshot{}, false
	}
	return gm.snapshotFor(m, playerID), true
}

// QueueDepths reports waiting counts per bucket.
func (gm *Manager) QueueDepths() []BucketStatus {
	return gm.queue.Depths()
}

// ActiveMatches returns the number of matches in play.
func (gm *Manager) ActiveMatches() int {
	return gm.store.ActiveCount()
}

// SweepStale force-refunds active matches with no move since the staleness
// cutoff, retries settlements that failed at match end, and evicts settled
// terminal matches past the retention grace. Run periodically by the
// recovery sweeper.
func (gm *Manager) SweepStale(ctx context.Context) (refunded, retried, evicted int) {
	cutoff := time.Now().Add(-time.Duration(gm.cfg.StaleMatchMinutes) * time.Minute)
	for _, m := range gm.store.StaleActive(cutoff) {
		// Both participants must still resolve before any money moves.
		ok := true
		for _, pid := range m.Players {
			if _, err := gm.identity.GetUser(ctx, pid); err != nil {
				log.Printf("[SWEEP] Match %s: identity check failed for %s, leaving for operator review: %v", m.ID, pid, err)
				ok = false
			}
		}
		if !ok {
			continue
		}

		m.mu.Lock()
		if m.Status != StatusActive {
			m.mu.Unlock()
			continue
		}
		outcome, first := gm.endLocked(m, StatusRefunded, "", EndStale)
		m.mu.Unlock()
		if !first {
			continue
		}

		log.Printf("[SWEEP] Match %s stale; refunding both stakes", m.ID)
		gm.settleRefund(ctx, m, outcome, audit.ActionForceRefund)
		refunded++
	}

	// Terminal matches whose wallet call failed still owe money; take the
	// settle gate again and rerun them.
	for _, m := range gm.store.UnsettledEnded() {
		m.mu.Lock()
		if m.Status == StatusActive || m.settled {
			m.mu.Unlock()
			continue
		}
		m.settled = true
		o := m.outcomeLocked()
		m.mu.Unlock()

		log.Printf("[SWEEP] Retrying settlement for match %s (%s)", o.MatchID, o.EndReason)
		if o.Winner != "" {
			gm.settleWin(ctx, m, o)
		} else {
			action := audit.ActionRefund
			if o.EndReason == EndStale {
				action = audit.ActionForceRefund
			}
			gm.settleRefund(ctx, m, o, action)
		}
		retried++
	}

	evictCutoff := time.Now().Add(-time.Duration(gm.cfg.EvictGraceSeconds) * time.Second)
	evicted = gm.store.EvictEndedBefore(evictCutoff)
	if refunded > 0 || retried > 0 || evicted > 0 {
		log.Printf("[SWEEP] Refunded %d stale matches, retried %d settlements, evicted %d ended matches", refunded, retried, evicted)
	}
	return refunded, retried, evicted
}

// endLocked finalizes a match. Returns false when another path settled
// first; the caller must then do nothing. Caller holds m.mu.
func (gm *Manager) endLocked(m *Match, status Status, winner, reason string) (Outcome, bool) {
	if m.settled {
		return Outcome{}, false
	}
	m.settled = true
	m.Status = status
	m.Winner = winner
	m.EndReason = reason
	m.NextTurn = ""
	m.EndedAt = time.Now()
	m.timerGen++
	return m.outcomeLocked(), true
}

func (gm *Manager) settleWin(ctx context.Context, m *Match, o Outcome) {
	gm.timers.Cancel(o.MatchID)

	net, fee, err := gm.settler.SettleWin(ctx, o)
	if err != nil {
		log.Printf("[SETTLE] Win settlement failed for match %s (winner=%s stake=%d mode=%s): %v",
			o.MatchID, o.Winner, o.Stake, o.Mode, err)
		gm.deferSettlement(m)
		return
	}
	gm.store.ReleasePlayers(m)

	data := map[string]interface{}{
		"winner":     o.Winner,
		"end_reason": o.EndReason,
		"pot":        o.Stake * 2,
		"payout":     net,
		"fee":        fee,
	}
	for _, pid := range o.Players {
		gm.notifier.Notify(pid, Event{Type: EventMatchEnded, MatchID: o.MatchID, Data: data})
	}
}

func (gm *Manager) settleRefund(ctx context.Context, m *Match, o Outcome, action string) {
	gm.timers.Cancel(o.MatchID)

	if err := gm.settler.SettleRefund(ctx, o, action); err != nil {
		log.Printf("[SETTLE] Refund settlement failed for match %s (players=%v stake=%d mode=%s): %v",
			o.MatchID, o.Players, o.Stake, o.Mode, err)
		gm.deferSettlement(m)
		return
	}
	gm.store.ReleasePlayers(m)

	winner := ""
	if o.EndReason == EndDraw {
		winner = rules.Draw
	}
	data := map[string]interface{}{
		"winner":     winner,
		"end_reason": o.EndReason,
		"refund":     o.Stake,
	}
	for _, pid := range o.Players {
		gm.notifier.Notify(pid, Event{Type: EventMatchEnded, MatchID: o.MatchID, Data: data})
	}
}

// deferSettlement reopens the settle-once gate after a failed wallet call.
// The match stays terminal, its players stay bound to it, and the sweeper
// retries until the money actually moves. No match_ended is sent until then.
func (gm *Manager) deferSettlement(m *Match) {
	m.mu.Lock()
	m.settled = false
	m.mu.Unlock()
}

func (gm *Manager) armTurnTimer(matchID string, gen uint64) {
	gm.timers.Arm(matchID, gen, gm.turnTimer(), func() {
		gm.onTurnExpired(matchID, gen)
	})
}

// onTurnExpired fires when the player on turn let the clock run out. The
// generation check defeats fires that lost a race with a move or another
// terminal transition.
func (gm *Manager) onTurnExpired(matchID string, gen uint64) {
	m, ok := gm.store.Get(matchID)
	if !ok {
		return
	}

	m.mu.Lock()
	if m.Status != StatusActive || m.timerGen != gen {
		m.mu.Unlock()
		return
	}
	loser := m.NextTurn
	winner := m.Opponent(loser)
	outcome, first := gm.endLocked(m, StatusCompleted, winner, EndTimeout)
	m.mu.Unlock()
	if !first {
		return
	}

	log.Printf("[TIMER] Match %s: %s timed out, %s wins", matchID, loser, winner)
	gm.settleWin(context.Background(), m, outcome)
}

// onDisconnectExpired fires when a disconnected player's grace ran out.
func (gm *Manager) onDisconnectExpired(matchID, playerID string) {
	m, ok := gm.store.Get(matchID)
	if !ok {
		return
	}

	m.mu.Lock()
	seat := m.seat(playerID)
	if m.Status != StatusActive || seat < 0 || m.DisconnectedAt[seat] == nil {
		m.mu.Unlock()
		return
	}
	winner := m.Opponent(playerID)
	outcome, first := gm.endLocked(m, StatusCompleted, winner, EndDisconnect)
	m.mu.Unlock()
	if !first {
		return
	}

	log.Printf("[MATCH] %s forfeits match %s by disconnect; %s wins", playerID, matchID, winner)
	gm.settleWin(context.Background(), m, outcome)
}

func (gm *Manager) broadcastMove(m *Match) {
	for _, pid := range m.Players {
		gm.notifier.Notify(pid, Event{Type: EventMoveMade, MatchID: m.ID, Data: gm.snapshotFor(m, pid)})
	}
}

func (gm *Manager) snapshotFor(m *Match, viewer string) Snapshot {
	rs, err := gm.registry.Get(m.GameType)
	if err != nil {
		return Snapshot{ID: m.ID}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(rs, viewer, gm.turnTimer())
}

func disconnectKey(matchID, playerID string) string {
	return "disconnect:" + matchID + ":" + playerID
}
