package rules

import (
	"encoding/json"
)

const diamondHuntSize = 5

// DiamondHuntState hides one diamond in a 5x5 grid. Players alternate
// revealing cells; the first to hit the diamond wins immediately. Diamond is
// never serialized to clients (see View).
type DiamondHuntState struct {
	Players  [2]string `json:"players"`
	Turn     string    `json:"turn"`
	Revealed []bool    `json:"revealed"`
	Diamond  int       `json:"diamond"`
	Moves    int       `json:"moves"`
}

// DiamondHuntMove reveals a cell by flat index (row*5 + col).
type DiamondHuntMove struct {
	Cell int `json:"cell"`
}

type diamondHuntRuleset struct {
	rng *lockedRand
}

func newDiamondHunt(rng *lockedRand) *diamondHuntRuleset {
	return &diamondHuntRuleset{rng: rng}
}

func (d *diamondHuntRuleset) Type() GameType { return DiamondHunt }

func (d *diamondHuntRuleset) InitialState(players [2]string) interface{} {
	return &DiamondHuntState{
		Players:  players,
		Turn:     players[0],
		Revealed: make([]bool, diamondHuntSize*diamondHuntSize),
		Diamond:  d.rng.Intn(diamondHuntSize * diamondHuntSize),
	}
}

func (d *diamondHuntRuleset) ApplyMove(state interface{}, player string, move json.RawMessage) (Result, error) {
	s, ok := state.(*DiamondHuntState)
	if !ok {
		return Result{}, ErrIllegalMove
	}
	if s.Turn == "" {
		return Result{}, ErrGameOver
	}
	if s.Turn != player {
		return Result{}, ErrNotYourTurn
	}

	var m DiamondHuntMove
	if err := json.Unmarshal(move, &m); err != nil {
		return Result{}, ErrMalformedMove
	}
	if m.Cell < 0 || m.Cell >= len(s.Revealed) {
		return Result{}, ErrOutOfRange
	}
	if s.Revealed[m.Cell] {
		return Result{}, ErrCellOccupied
	}

	next := *s
	next.Revealed = append([]bool(nil), s.Revealed...)
	next.Revealed[m.Cell] = true
	next.Moves++

	if m.Cell == next.Diamond {
		next.Turn = ""
		return Result{State: &next, Winner: player, Terminal: true}, nil
	}

	next.Turn = otherPlayer(s.Players, player)
	return Result{State: &next, NextTurn: next.Turn}, nil
}

// View strips the diamond position while the hunt is live. Once the game is
// over the position is revealed so clients can render the final board.
func (d *diamondHuntRuleset) View(state interface{}, player string) interface{} {
	s, ok := state.(*DiamondHuntState)
	if !ok {
		return state
	}
	if s.Turn == "" {
		return s
	}
	masked := *s
	masked.Diamond = -1
	return &masked
}
