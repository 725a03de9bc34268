package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func uciMove(t *testing.T, uci string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(ChessMove{UCI: uci})
	require.NoError(t, err)
	return b
}

func TestChessFoolsMateIsCheckmate(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(Chess)
	state := rs.InitialState([2]string{"white-player", "black-player"})

	moves := []struct {
		player string
		uci    string
	}{
		{"white-player", "f2f3"},
		{"black-player", "e7e5"},
		{"white-player", "g2g4"},
	}
	for _, mv := range moves {
		res, err := rs.ApplyMove(state, mv.player, uciMove(t, mv.uci))
		require.NoError(t, err)
		require.False(t, res.Terminal)
		state = res.State
	}

	res, err := rs.ApplyMove(state, "black-player", uciMove(t, "d8h4"))
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.Equal(t, "black-player", res.Winner)
}

func TestChessRejectsIllegalMove(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(Chess)
	state := rs.InitialState([2]string{"white-player", "black-player"})

	// King cannot jump at the start
	_, err := rs.ApplyMove(state, "white-player", uciMove(t, "e1e3"))
	require.ErrorIs(t, err, ErrIllegalMove)

	// Black cannot open
	_, err = rs.ApplyMove(state, "black-player", uciMove(t, "e7e5"))
	require.ErrorIs(t, err, ErrNotYourTurn)

	// Garbage notation
	_, err = rs.ApplyMove(state, "white-player", uciMove(t, "zz9"))
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestChessTurnAlternates(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(Chess)
	state := rs.InitialState([2]string{"white-player", "black-player"})

	res, err := rs.ApplyMove(state, "white-player", uciMove(t, "e2e4"))
	require.NoError(t, err)
	require.Equal(t, "black-player", res.NextTurn)

	res, err = rs.ApplyMove(res.State, "black-player", uciMove(t, "c7c5"))
	require.NoError(t, err)
	require.Equal(t, "white-player", res.NextTurn)

	s := res.State.(*ChessState)
	require.Equal(t, []string{"e2e4", "c7c5"}, s.MovesUCI)
	require.NotEmpty(t, s.FEN)
}

func TestChessStalemateIsDraw(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(Chess)

	// Fastest known stalemate (Sam Loyd, 10 moves)
	moves := []string{
		"e2e3", "a7a5",
		"d1h5", "a8a6",
		"h5a5", "h7h5",
		"h2h4", "a6h6",
		"a5c7", "f7f6",
		"c7d7", "e8f7",
		"d7b7", "d8d3",
		"b7b8", "d3h7",
		"b8c8", "f7g6",
		"c8e6",
	}

	state := rs.InitialState([2]string{"white-player", "black-player"})
	players := []string{"white-player", "black-player"}
	var last Result
	for i, uci := range moves {
		res, err := rs.ApplyMove(state, players[i%2], uciMove(t, uci))
		require.NoError(t, err, "move %d (%s)", i, uci)
		state = res.State
		last = res
	}

	require.True(t, last.Terminal)
	require.Equal(t, Draw, last.Winner)
}
