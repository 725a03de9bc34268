package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func colMove(t *testing.T, col int) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(ConnectFourMove{Col: col})
	require.NoError(t, err)
	return b
}

func TestConnectFourVerticalWin(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(ConnectFour)
	state := rs.InitialState([2]string{"alice", "bob"})

	// alice stacks column 0, bob column 1
	for i := 0; i < 3; i++ {
		res, err := rs.ApplyMove(state, "alice", colMove(t, 0))
		require.NoError(t, err)
		state = res.State
		res, err = rs.ApplyMove(state, "bob", colMove(t, 1))
		require.NoError(t, err)
		state = res.State
	}

	res, err := rs.ApplyMove(state, "alice", colMove(t, 0))
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.Equal(t, "alice", res.Winner)
}

func TestConnectFourGravity(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(ConnectFour)
	state := rs.InitialState([2]string{"alice", "bob"})

	res, err := rs.ApplyMove(state, "alice", colMove(t, 3))
	require.NoError(t, err)
	s := res.State.(*ConnectFourState)

	// Disc lands on the bottom row
	require.Equal(t, "alice", s.Board[5*connectFourCols+3])
	require.Equal(t, "", s.Board[4*connectFourCols+3])
}

func TestConnectFourFullColumnRejected(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(ConnectFour)
	state := rs.InitialState([2]string{"alice", "bob"})

	players := []string{"alice", "bob"}
	for i := 0; i < connectFourRows; i++ {
		res, err := rs.ApplyMove(state, players[i%2], colMove(t, 2))
		require.NoError(t, err)
		state = res.State
	}

	_, err := rs.ApplyMove(state, players[connectFourRows%2], colMove(t, 2))
	require.ErrorIs(t, err, ErrCellOccupied)

	_, err = rs.ApplyMove(state, players[connectFourRows%2], colMove(t, 7))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestConnectFourDrawOnFullBoard(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(ConnectFour)

	// Striped fill with the parity inverted on the middle row pair: every
	// vertical, horizontal and diagonal run caps at 2, so no one can win.
	cellOwner := func(row, col int) string {
		base := col%2 == 0
		if row == 2 || row == 3 {
			base = !base
		}
		if base {
			return "alice"
		}
		return "bob"
	}

	board := make([]string, connectFourRows*connectFourCols)
	for r := 0; r < connectFourRows; r++ {
		for c := 0; c < connectFourCols; c++ {
			board[r*connectFourCols+c] = cellOwner(r, c)
		}
	}
	// Leave the top of column 0 for the final move
	board[0] = ""

	state := &ConnectFourState{
		Players: [2]string{"alice", "bob"},
		Board:   board,
		Turn:    "alice",
		Moves:   connectFourRows*connectFourCols - 1,
	}

	res, err := rs.ApplyMove(state, "alice", colMove(t, 0))
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.Equal(t, Draw, res.Winner)
	require.Empty(t, res.NextTurn)
}
