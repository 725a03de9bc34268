package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/game"
	"github.com/turnstake/backend/internal/middleware"
	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
)

// Handler upgrades authenticated players onto the hub and dispatches their
// intents into the match manager.
type Handler struct {
	hub *Hub
	mgr *game.Manager
	cfg *config.Config
}

func NewHandler(hub *Hub, mgr *game.Manager, cfg *config.Config) *Handler {
	return &Handler{hub: hub, mgr: mgr, cfg: cfg}
}

// intent is a client-to-server message.
type intent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinQueuePayload struct {
	GameType string `json:"game_type"`
	Stake    int64  `json:"stake"`
	Mode     string `json:"mode"`
}

type movePayload struct {
	Move json.RawMessage `json:"move"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// Serve authenticates the handshake and runs the connection. The token
// travels in the query string because browsers cannot set headers on
// WebSocket upgrades.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	claims, err := middleware.ParseToken(h.cfg, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed for %s: %v", claims.PlayerID, err)
		return
	}

	client := newClient(conn, claims.PlayerID)
	h.hub.register(client)
	go client.writePump()

	// Resync a player coming back to a live match
	if snap, ok := h.mgr.HandleReconnect(claims.PlayerID); ok {
		h.hub.Notify(claims.PlayerID, game.Event{Type: game.EventMatchFound, MatchID: snap.ID, Data: snap})
	}

	go h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		if h.hub.remove(c) {
			// Only a real departure starts the forfeit clock; a socket that
			// was replaced by a reconnect must not.
			h.mgr.HandleDisconnect(c.playerID)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg intent
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(c.playerID, "malformed_intent", "could not parse message")
			continue
		}
		h.dispatch(c, msg)
	}
}

func (h *Handler) dispatch(c *Client, msg intent) {
	ctx := context.Background()

	switch msg.Type {
	case "join_queue":
		var p joinQueuePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			h.sendError(c.playerID, "malformed_intent", "bad join_queue payload")
			return
		}
		if err := h.mgr.JoinQueue(ctx, c.playerID, rules.GameType(p.GameType), p.Stake, wallet.Mode(p.Mode)); err != nil {
			h.sendError(c.playerID, errorCode(err), err.Error())
		}

	case "cancel_queue":
		h.mgr.CancelQueue(c.playerID)

	case "make_move":
		var p movePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			h.sendError(c.playerID, "malformed_intent", "bad make_move payload")
			return
		}
		if err := h.mgr.ApplyMove(ctx, c.playerID, p.Move); err != nil {
			h.sendError(c.playerID, errorCode(err), err.Error())
		}

	case "resign":
		if err := h.mgr.Resign(ctx, c.playerID); err != nil {
			h.sendError(c.playerID, errorCode(err), err.Error())
		}

	case "chat_message":
		var p chatPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			h.sendError(c.playerID, "malformed_intent", "bad chat payload")
			return
		}
		if err := h.mgr.Chat(c.playerID, p.Text); err != nil {
			h.sendError(c.playerID, errorCode(err), err.Error())
		}

	default:
		h.sendError(c.playerID, "unknown_intent", "unknown intent type: "+msg.Type)
	}
}

func (h *Handler) sendError(playerID, code, message string) {
	h.hub.Notify(playerID, game.Event{
		Type: game.EventError,
		Data: map[string]interface{}{"code": code, "message": message},
	})
}

// errorCode maps sentinel errors to stable client-facing codes so the UI can
// re-prompt without tearing down its state.
func errorCode(err error) string {
	switch {
	case errors.Is(err, rules.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, rules.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, rules.ErrCellOccupied):
		return "cell_occupied"
	case errors.Is(err, rules.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, rules.ErrMalformedMove):
		return "malformed_move"
	case errors.Is(err, rules.ErrAlreadyRolled):
		return "already_rolled"
	case errors.Is(err, rules.ErrGameOver):
		return "game_over"
	case errors.Is(err, rules.ErrUnknownGame):
		return "unknown_game"
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrAlreadyInMatch):
		return "already_in_match"
	case errors.Is(err, game.ErrNotInMatch):
		return "not_in_match"
	case errors.Is(err, game.ErrStakeTooLow):
		return "stake_too_low"
	case errors.Is(err, game.ErrInvalidMode):
		return "invalid_mode"
	default:
		return "internal_error"
	}
}
