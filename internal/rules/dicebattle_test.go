package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

var rollMove = json.RawMessage(`{}`)

func TestDiceBattlePlaysToCompletion(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(DiceBattle)
	state := rs.InitialState([2]string{"alice", "bob"})

	res := Result{State: state, NextTurn: "alice"}
	var err error
	for turns := 0; !res.Terminal; turns++ {
		require.Less(t, turns, 2*diceBattleRounds, "match did not end within 5 rounds")
		res, err = rs.ApplyMove(res.State, res.NextTurn, rollMove)
		require.NoError(t, err)
	}

	s := res.State.(*DiceBattleState)
	require.Empty(t, s.Turn)
	switch res.Winner {
	case "alice":
		require.Greater(t, s.RoundWins[0], s.RoundWins[1])
	case "bob":
		require.Greater(t, s.RoundWins[1], s.RoundWins[0])
	case Draw:
		require.Equal(t, s.RoundWins[0], s.RoundWins[1])
	default:
		t.Fatalf("unexpected winner %q", res.Winner)
	}
}

func TestDiceBattleTurnPassesAfterFirstRoll(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(DiceBattle)
	state := rs.InitialState([2]string{"alice", "bob"})

	res, err := rs.ApplyMove(state, "alice", rollMove)
	require.NoError(t, err)
	require.False(t, res.Terminal)
	require.Equal(t, "bob", res.NextTurn)

	s := res.State.(*DiceBattleState)
	require.True(t, s.Rolled[0])
	require.False(t, s.Rolled[1])
	require.Equal(t, 1, s.Round)
}

func TestDiceBattleRejectsOutOfTurnRoll(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(DiceBattle)
	state := rs.InitialState([2]string{"alice", "bob"})

	_, err := rs.ApplyMove(state, "bob", rollMove)
	require.ErrorIs(t, err, ErrNotYourTurn)

	res, err := rs.ApplyMove(state, "alice", rollMove)
	require.NoError(t, err)

	// alice cannot roll again while bob owes a roll
	_, err = rs.ApplyMove(res.State, "alice", rollMove)
	require.ErrorIs(t, err, ErrNotYourTurn)
}

func TestDiceBattleEndsEarlyAtThreeRoundWins(t *testing.T) {
	reg := testRegistry()
	rs, _ := reg.Get(DiceBattle)

	// Hand-crafted state: alice has 2 round wins entering round 3 and the
	// round totals are forced so that any alice-favoring roll pair ends it.
	state := &DiceBattleState{
		Players:    [2]string{"alice", "bob"},
		Turn:       "bob",
		Round:      3,
		RoundWins:  [2]int{2, 0},
		Rolled:     [2]bool{true, false},
		RollTotals: [2]int{13, 0}, // impossible to beat, max roll is 12
	}

	res, err := rs.ApplyMove(state, "bob", rollMove)
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.Equal(t, "alice", res.Winner)
}
