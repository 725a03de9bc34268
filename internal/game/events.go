package game

// Event is a single server-to-client notification. The transport layer
// marshals it onto whatever pipe the recipient is connected through.
type Event struct {
	Type    string      `json:"type"`
	MatchID string      `json:"match_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Event types pushed to clients
const (
	EventQueueWaiting         = "queue_waiting"
	EventMatchFound           = "match_found"
	EventMoveMade             = "move_made"
	EventYourTurn             = "your_turn"
	EventMatchEnded           = "match_ended"
	EventChatMessage          = "chat_message"
	EventOpponentDisconnected = "opponent_disconnected"
	EventOpponentReconnected  = "opponent_reconnected"
	EventError                = "error"
)
