package rules

import (
	"encoding/json"
)

const (
	diceBattleRounds = 5
	diceBattleTarget = 3 // round wins needed for an immediate match win
)

// DiceBattleState tracks a best-of-5 dice duel. Each round both players roll
// two dice; the higher total takes the round. Index 0/1 mirror Players.
type DiceBattleState struct {
	Players    [2]string `json:"players"`
	Turn       string    `json:"turn"`
	Round      int       `json:"round"`
	RoundWins  [2]int    `json:"round_wins"`
	Rolled     [2]bool   `json:"rolled"`
	RollTotals [2]int    `json:"roll_totals"`
	LastDice   [2][2]int `json:"last_dice"`
}

// DiceBattleMove carries no payload; the server rolls for the acting player.
type DiceBattleMove struct{}

type diceBattleRuleset struct {
	rng *lockedRand
}

func newDiceBattle(rng *lockedRand) *diceBattleRuleset {
	return &diceBattleRuleset{rng: rng}
}

func (d *diceBattleRuleset) Type() GameType { return DiceBattle }

func (d *diceBattleRuleset) InitialState(players [2]string) interface{} {
	return &DiceBattleState{
		Players: players,
		Turn:    players[0],
		Round:   1,
	}
}

func (d *diceBattleRuleset) ApplyMove(state interface{}, player string, move json.RawMessage) (Result, error) {
	s, ok := state.(*DiceBattleState)
	if !ok {
		return Result{}, ErrIllegalMove
	}
	if s.Turn == "" {
		return Result{}, ErrGameOver
	}
	if s.Turn != player {
		return Result{}, ErrNotYourTurn
	}

	idx := s.seat(player)
	if s.Rolled[idx] {
		return Result{}, ErrAlreadyRolled
	}

	next := *s
	d1, d2 := d.rng.Intn(6)+1, d.rng.Intn(6)+1
	next.Rolled[idx] = true
	next.RollTotals[idx] = d1 + d2
	next.LastDice[idx] = [2]int{d1, d2}

	opp := 1 - idx
	if !next.Rolled[opp] {
		// Opponent still owes a roll this round
		next.Turn = s.Players[opp]
		return Result{State: &next, NextTurn: next.Turn}, nil
	}

	// Both rolled: score the round. Equal totals score for neither side.
	switch {
	case next.RollTotals[idx] > next.RollTotals[opp]:
		next.RoundWins[idx]++
	case next.RollTotals[opp] > next.RollTotals[idx]:
		next.RoundWins[opp]++
	}

	if next.RoundWins[0] >= diceBattleTarget || next.RoundWins[1] >= diceBattleTarget || next.Round >= diceBattleRounds {
		next.Turn = ""
		switch {
		case next.RoundWins[0] > next.RoundWins[1]:
			return Result{State: &next, Winner: next.Players[0], Terminal: true}, nil
		case next.RoundWins[1] > next.RoundWins[0]:
			return Result{State: &next, Winner: next.Players[1], Terminal: true}, nil
		default:
			return Result{State: &next, Winner: Draw, Terminal: true}, nil
		}
	}

	// Next round; the player who rolled second leads it
	next.Round++
	next.Rolled = [2]bool{}
	next.RollTotals = [2]int{}
	next.Turn = player
	return Result{State: &next, NextTurn: next.Turn}, nil
}

func (d *diceBattleRuleset) View(state interface{}, player string) interface{} {
	return state
}

func (s *DiceBattleState) seat(player string) int {
	if s.Players[1] == player {
		return 1
	}
	return 0
}
