package rules

import "encoding/json"

// GridState is the board state shared by the 3x3 and 5x5 tic-tac-toe
// variants. Cells hold the owning player's id, or "" when empty.
type GridState struct {
	Players [2]string `json:"players"`
	Board   []string  `json:"board"`
	Size    int       `json:"size"`
	WinLen  int       `json:"win_len"`
	Turn    string    `json:"turn"`
	Moves   int       `json:"moves"`
}

// GridMove targets a cell by flat index (row*size + col).
type GridMove struct {
	Cell int `json:"cell"`
}

// gridRuleset implements N-in-a-row on a square board. The 3x3 variant needs
// 3 in a row, the 5x5 variant 4.
type gridRuleset struct {
	gameType GameType
	size     int
	winLen   int
}

func newGridRuleset(gt GameType, size, winLen int) *gridRuleset {
	return &gridRuleset{gameType: gt, size: size, winLen: winLen}
}

func (g *gridRuleset) Type() GameType { return g.gameType }

func (g *gridRuleset) InitialState(players [2]string) interface{} {
	return &GridState{
		Players: players,
		Board:   make([]string, g.size*g.size),
		Size:    g.size,
		WinLen:  g.winLen,
		Turn:    players[0],
	}
}

func (g *gridRuleset) ApplyMove(state interface{}, player string, move json.RawMessage) (Result, error) {
	s, ok := state.(*GridState)
	if !ok {
		return Result{}, ErrIllegalMove
	}
	if s.Turn == "" {
		return Result{}, ErrGameOver
	}
	if s.Turn != player {
		return Result{}, ErrNotYourTurn
	}

	var m GridMove
	if err := json.Unmarshal(move, &m); err != nil {
		return Result{}, ErrMalformedMove
	}
	if m.Cell < 0 || m.Cell >= len(s.Board) {
		return Result{}, ErrOutOfRange
	}
	if s.Board[m.Cell] != "" {
		return Result{}, ErrCellOccupied
	}

	next := s.clone()
	next.Board[m.Cell] = player
	next.Moves++

	if hasLineThrough(next.Board, next.Size, next.WinLen, m.Cell, player) {
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

func (g *gridRuleset) View(state interface{}, player string) interface{} {
	return state
}

func (s *GridState) clone() *GridState {
	next := *s
	next.Board = append([]string(nil), s.Board...)
	return &next
}

// hasLineThrough checks the four directions through the last-played cell for
// a run of winLen cells owned by player.
func hasLineThrough(board []string, size, winLen, cell int, player string) bool {
	row, col := cell/size, cell%size
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

	for _, d := range dirs {
		count := 1
		for _, sign := range []int{1, -1} {
			r, c := row+d[0]*sign, col+d[1]*sign
			for r >= 0 && r < size && c >= 0 && c < size && board[r*size+c] == player {
				count++
				r += d[0] * sign
				c += d[1] * sign
			}
		}
		if count >= winLen {
			return true
		}
	}
	return false
}
