package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// GameType is the closed set of supported game variants.
type GameType string

const (
	TicTacToe    GameType = "tic_tac_toe"
	TicTacToe5x5 GameType = "tic_tac_toe_5x5"
	ConnectFour  GameType = "connect_four"
	DiceBattle   GameType = "dice_battle"
	DiamondHunt  GameType = "diamond_hunt"
	Chess        GameType = "chess"
)

// Draw is the winner value for drawn matches.
const Draw = "draw"

// Sentinel errors surfaced to the submitting client. The transport layer maps
// these to specific error messages so the UI can re-prompt without resetting.
var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrOutOfRange    = errors.New("move out of range")
	ErrCellOccupied  = errors.New("cell already occupied")
	ErrIllegalMove   = errors.New("illegal move")
	ErrGameOver      = errors.New("game already ended")
	ErrUnknownGame   = errors.New("unknown game type")
	ErrMalformedMove = errors.New("malformed move payload")
	ErrAlreadyRolled = errors.New("already rolled this round")
)

// Result is the outcome of an accepted move. When Terminal is true, Winner is
// a player id or Draw and NextTurn is empty; otherwise NextTurn names the
// player allowed to move.
type Result struct {
	State    interface{}
	NextTurn string
	Winner   string
	Terminal bool
}

// Ruleset validates moves and produces successor states for one game variant.
// Implementations are pure: no I/O, no clock, and any randomness comes from
// the rand.Rand handed to the registry so tests can seed it.
type Ruleset interface {
	Type() GameType

	// InitialState builds the starting state. players[0] is the first mover
	// (X / white / first roller).
	InitialState(players [2]string) interface{}

	// ApplyMove validates move for player against state and returns the
	// successor. On error the state is unchanged.
	ApplyMove(state interface{}, player string, move json.RawMessage) (Result, error)

	// View returns the state as seen by player, with hidden information
	// (e.g. the diamond position) stripped.
	View(state interface{}, player string) interface{}
}

// Registry holds one Ruleset per game type.
type Registry struct {
	rulesets map[GameType]Ruleset
}

// NewRegistry constructs all rulesets. rng feeds the variants that need
// randomness (dice rolls, diamond placement); it is wrapped so concurrent
// matches can share it.
func NewRegistry(rng *rand.Rand) *Registry {
	lr := &lockedRand{rng: rng}
	r := &Registry{rulesets: make(map[GameType]Ruleset)}
	for _, rs := range []Ruleset{
		newGridRuleset(TicTacToe, 3, 3),
		newGridRuleset(TicTacToe5x5, 5, 4),
		newConnectFour(),
		newDiceBattle(lr),
		newDiamondHunt(lr),
		newChess(),
	} {
		r.rulesets[rs.Type()] = rs
	}
	return r
}

// lockedRand serializes access to a rand.Rand shared by rulesets.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

// Get returns the ruleset for gt.
func (r *Registry) Get(gt GameType) (Ruleset, error) {
	rs, ok := r.rulesets[gt]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gt)
	}
	return rs, nil
}

// Valid reports whether gt names a supported game type.
func (r *Registry) Valid(gt GameType) bool {
	_, ok := r.rulesets[gt]
	return ok
}

// otherPlayer returns the opponent of player within players.
func otherPlayer(players [2]string, player string) string {
	if players[0] == player {
		return players[1]
	}
	return players[0]
}
