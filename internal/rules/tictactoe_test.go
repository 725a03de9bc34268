package rules

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(rand.New(rand.NewSource(1)))
}

func gridMove(t *testing.T, cell int) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(GridMove{Cell: cell})
	require.NoError(t, err)
	return b
}

func TestTicTacToeTopRowWin(t *testing.T) {
	reg := testRegistry()
	rs, err := reg.Get(TicTacToe)
	require.NoError(t, err)

	players := [2]string{"alice", "bob"}
	state := rs.InitialState(players)

	// X@0, O@3, X@1, O@4, X@2 gives alice the top row
	moves := []struct {
		player string
		cell   int
	}{
		{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4},
	}
	for _, mv := range moves {
		res, err := rs.ApplyMove(state, mv.player, gridMove(t, mv.cell))
		require.NoError(t, err)
		require.False(t, res.Terminal)
		state = res.State
	}

	res, err := rs.ApplyMove(state, "alice", gridMove(t, 2))
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.Equal(t, "alice", res.Winner)
	require.Empty(t, res.NextTurn)
}

func TestTicTacToeRejectsOutOfTurn(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(TicTacToe)
	state := rs.InitialState([2]string{"alice", "bob"})

	_, err := rs.ApplyMove(state, "bob", gridMove(t, 0))
	require.ErrorIs(t, err, ErrNotYourTurn)
}

func TestTicTacToeRejectsOccupiedAndOutOfRange(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(TicTacToe)
	state := rs.InitialState([2]string{"alice", "bob"})

	res, err := rs.ApplyMove(state, "alice", gridMove(t, 4))
	require.NoError(t, err)

	_, err = rs.ApplyMove(res.State, "bob", gridMove(t, 4))
	require.ErrorIs(t, err, ErrCellOccupied)

	_, err = rs.ApplyMove(res.State, "bob", gridMove(t, 9))
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = rs.ApplyMove(res.State, "bob", gridMove(t, -1))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestTicTacToeDraw(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(TicTacToe)
	state := rs.InitialState([2]string{"alice", "bob"})

	// X O X / X X O / O X O fills the board with no line
	seq := []struct {
		player string
		cell   int
	}{
		{"alice", 0}, {"bob", 1}, {"alice", 2},
		{"bob", 5}, {"alice", 3}, {"bob", 6},
		{"alice", 4}, {"bob", 8}, {"alice", 7},
	}
	var last Result
	for i, mv := range seq {
		res, err := rs.ApplyMove(state, mv.player, gridMove(t, mv.cell))
		require.NoError(t, err, "move %d", i)
		state = res.State
		last = res
	}
	require.True(t, last.Terminal)
	require.Equal(t, Draw, last.Winner)
}

func TestTicTacToeMoveAfterEndRejected(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(TicTacToe)
	state := rs.InitialState([2]string{"alice", "bob"})

	for _, mv := range []struct {
		player string
		cell   int
	}{{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4}, {"alice", 2}} {
		res, err := rs.ApplyMove(state, mv.player, gridMove(t, mv.cell))
		require.NoError(t, err)
		state = res.State
	}

	_, err := rs.ApplyMove(state, "bob", gridMove(t, 5))
	require.ErrorIs(t, err, ErrGameOver)
}

func TestTicTacToe5x5NeedsFourInARow(t *testing.T) {
	reg := testRegistry()
	rs, err := reg.Get(TicTacToe5x5)
	require.NoError(t, err)

	state := rs.InitialState([2]string{"alice", "bob"})

	// alice builds cells 0,1,2 on row 0; three in a row must not win on 5x5
	seq := []struct {
		player string
		cell   int
	}{{"alice", 0}, {"bob", 10}, {"alice", 1}, {"bob", 11}, {"alice", 2}, {"bob", 12}}
	for _, mv := range seq {
		res, err := rs.ApplyMove(state, mv.player, gridMove(t, mv.cell))
		require.NoError(t, err)
		require.False(t, res.Terminal, "three in a row ended the 5x5 game")
		state = res.State
	}

	// Fourth in a row wins
	res, err := rs.ApplyMove(state, "alice", gridMove(t, 3))
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.Equal(t, "alice", res.Winner)
}

func TestGridStateIsImmutable(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(TicTacToe)
	state := rs.InitialState([2]string{"alice", "bob"})

	res, err := rs.ApplyMove(state, "alice", gridMove(t, 0))
	require.NoError(t, err)

	orig := state.(*GridState)
	require.Equal(t, "", orig.Board[0], "ApplyMove mutated the input state")
	require.Equal(t, "alice", res.State.(*GridState).Board[0])
}
