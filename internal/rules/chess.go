package rules

import (
	"encoding/json"

	"github.com/notnil/chess"
)

// ChessState carries the full UCI move history so the position, including
// repetition and half-move counters, can be replayed exactly. Players[0] is
// white and always moves first.
type ChessState struct {
	Players  [2]string `json:"players"`
	Turn     string    `json:"turn"`
	FEN      string    `json:"fen"`
	MovesUCI []string  `json:"moves_uci"`
}

// ChessMove is a move in UCI notation, e.g. "e2e4" or "e7e8q" for promotion.
type ChessMove struct {
	UCI string `json:"uci"`
}

type chessRuleset struct{}

func newChess() *chessRuleset { return &chessRuleset{} }

func (c *chessRuleset) Type() GameType { return Chess }

func (c *chessRuleset) InitialState(players [2]string) interface{} {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	return &ChessState{
		Players: players,
		Turn:    players[0],
		FEN:     game.Position().String(),
	}
}

func (c *chessRuleset) ApplyMove(state interface{}, player string, move json.RawMessage) (Result, error) {
	s, ok := state.(*ChessState)
	if !ok {
		return Result{}, ErrIllegalMove
	}
	if s.Turn == "" {
		return Result{}, ErrGameOver
	}
	if s.Turn != player {
		return Result{}, ErrNotYourTurn
	}

	var m ChessMove
	if err := json.Unmarshal(move, &m); err != nil || m.UCI == "" {
		return Result{}, ErrMalformedMove
	}

	// Replay from the start so the engine keeps repetition and half-move
	// history; a bare FEN rebuild would lose both.
	game, err := replayChess(s.MovesUCI)
	if err != nil {
		return Result{}, ErrIllegalMove
	}
	if err := game.MoveStr(m.UCI); err != nil {
		return Result{}, ErrIllegalMove
	}

	next := *s
	next.MovesUCI = append(append([]string(nil), s.MovesUCI...), m.UCI)
	next.FEN = game.Position().String()

	switch game.Outcome() {
	case chess.WhiteWon:
		next.Turn = ""
		return Result{State: &next, Winner: next.Players[0], Terminal: true}, nil
	case chess.BlackWon:
		next.Turn = ""
		return Result{State: &next, Winner: next.Players[1], Terminal: true}, nil
	case chess.Draw:
		// Stalemate, insufficient material, threefold repetition or the
		// fifty-move rule, as detected by the engine.
		next.Turn = ""
		return Result{State: &next, Winner: Draw, Terminal: true}, nil
	}

	if game.Position().Turn() == chess.White {
		next.Turn = next.Players[0]
	} else {
		next.Turn = next.Players[1]
	}
	return Result{State: &next, NextTurn: next.Turn}, nil
}

func (c *chessRuleset) View(state interface{}, player string) interface{} {
	return state
}

func replayChess(movesUCI []string) (*chess.Game, error) {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for _, uci := range movesUCI {
		if err := game.MoveStr(uci); err != nil {
			return nil, err
		}
	}
	return game, nil
}
