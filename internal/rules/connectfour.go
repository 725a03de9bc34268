package rules

import "encoding/json"

const (
	connectFourRows = 6
	connectFourCols = 7
)

// ConnectFourState is a 6x7 board stored row-major, row 0 at the top. Cells
// hold the owning player's id, or "" when empty.
type ConnectFourState struct {
	Players [2]string `json:"players"`
	Board   []string  `json:"board"`
	Turn    string    `json:"turn"`
	Moves   int       `json:"moves"`
}

// ConnectFourMove drops a disc into a column; gravity decides the row.
type ConnectFourMove struct {
	Col int `json:"col"`
}

type connectFourRuleset struct{}

func newConnectFour() *connectFourRuleset { return &connectFourRuleset{} }

func (c *connectFourRuleset) Type() GameType { return ConnectFour }

func (c *connectFourRuleset) InitialState(players [2]string) interface{} {
	return &ConnectFourState{
		Players: players,
		Board:   make([]string, connectFourRows*connectFourCols),
		Turn:    players[0],
	}
}

func (c *connectFourRuleset) ApplyMove(state interface{}, player string, move json.RawMessage) (Result, error) {
	s, ok := state.(*ConnectFourState)
	if !ok {
		return Result{}, ErrIllegalMove
	}
	if s.Turn == "" {
		return Result{}, ErrGameOver
	}
	if s.Turn != player {
		return Result{}, ErrNotYourTurn
	}

	var m ConnectFourMove
	if err := json.Unmarshal(move, &m); err != nil {
		return Result{}, ErrMalformedMove
	}
	if m.Col < 0 || m.Col >= connectFourCols {
		return Result{}, ErrOutOfRange
	}

	// Find the lowest empty row in the column
	row := -1
	for r := connectFourRows - 1; r >= 0; r-- {
		if s.Board[r*connectFourCols+m.Col] == "" {
			row = r
			break
		}
	}
	if row < 0 {
		return Result{}, ErrCellOccupied
	}

	next := s.clone()
	cell := row*connectFourCols + m.Col
	next.Board[cell] = player
	next.Moves++

	if connectFourWin(next.Board, cell, player) {
		next.Turn = ""
		return Result{State: next, Winner: player, Terminal: true}, nil
	}
	if next.Moves == len(next.Board) {
		next.Turn = ""
		return Result{State: next, Winner: Draw, Terminal: true}, nil
	}

	next.Turn = otherPlayer(s.Players, player)
	return Result{State: next, NextTurn: next.Turn}, nil
}

func (c *connectFourRuleset) View(state interface{}, player string) interface{} {
	return state
}

func (s *ConnectFourState) clone() *ConnectFourState {
	next := *s
	next.Board = append([]string(nil), s.Board...)
	return &next
}

// connectFourWin checks for 4-in-a-row through the just-placed cell.
func connectFourWin(board []string, cell int, player string) bool {
	row, col := cell/connectFourCols, cell%connectFourCols
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

	for _, d := range dirs {
		count := 1
		for _, sign := range []int{1, -1} {
			r, c := row+d[0]*sign, col+d[1]*sign
			for r >= 0 && r < connectFourRows && c >= 0 && c < connectFourCols && board[r*connectFourCols+c] == player {
				count++
				r += d[0] * sign
				c += d[1] * sign
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}
