package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
)

func ticket(playerID string, gt rules.GameType, stake int64) *Ticket {
	return &Ticket{
		PlayerID: playerID,
		GameType: gt,
		Stake:    stake,
		Mode:     wallet.ModeReal,
		JoinedAt: time.Now(),
	}
}

func TestQueuePairsFIFOWithinBucket(t *testing.T) {
	q := NewQueue()

	require.Nil(t, q.Pair(ticket("a", rules.TicTacToe, 100)))

	// A different bucket never pairs; a waits on
	require.Nil(t, q.Pair(ticket("b", rules.TicTacToe, 200)))

	// The next compatible joiner matches the oldest waiter
	opp := q.Pair(ticket("c", rules.TicTacToe, 100))
	require.NotNil(t, opp)
	require.Equal(t, "a", opp.PlayerID)
	require.False(t, q.Contains("a"))
	require.True(t, q.Contains("b"))
	require.False(t, q.Contains("c"))

	opp = q.Pair(ticket("d", rules.TicTacToe, 200))
	require.NotNil(t, opp)
	require.Equal(t, "b", opp.PlayerID)
}

func TestQueueBucketsAreIsolated(t *testing.T) {
	q := NewQueue()

	require.Nil(t, q.Pair(ticket("a", rules.TicTacToe, 100)))

	// Different stake, game type or mode never pair
	require.Nil(t, q.Pair(ticket("b", rules.TicTacToe, 200)))
	require.Nil(t, q.Pair(ticket("c", rules.Chess, 100)))

	virt := ticket("d", rules.TicTacToe, 100)
	virt.Mode = wallet.ModeVirtual
	require.Nil(t, q.Pair(virt))

	require.Len(t, q.Depths(), 4)
}

func TestQueueRejoinReplacesTicket(t *testing.T) {
	q := NewQueue()

	require.Nil(t, q.Pair(ticket("a", rules.TicTacToe, 100)))
	require.Nil(t, q.Pair(ticket("a", rules.Chess, 200)))

	// The old ticket is gone: a joiner in the first bucket waits alone
	require.Nil(t, q.Pair(ticket("b", rules.TicTacToe, 100)))

	// ...and the replacement ticket pairs in its new bucket
	opp := q.Pair(ticket("c", rules.Chess, 200))
	require.NotNil(t, opp)
	require.Equal(t, "a", opp.PlayerID)
}

func TestQueuePushFrontRestoresHead(t *testing.T) {
	q := NewQueue()

	require.Nil(t, q.Pair(ticket("a", rules.TicTacToe, 100)))

	q.PushFront(ticket("b", rules.TicTacToe, 100))
	require.Equal(t, 1, q.Position("b"))
	require.Equal(t, 2, q.Position("a"))
}

func TestQueueLeave(t *testing.T) {
	q := NewQueue()

	require.Nil(t, q.Pair(ticket("a", rules.TicTacToe, 100)))

	require.True(t, q.Leave("a"))
	require.False(t, q.Leave("a"))
	require.False(t, q.Contains("a"))
	require.Equal(t, 0, q.Position("a"))

	// Queue is usable again for the same player
	require.Nil(t, q.Pair(ticket("a", rules.TicTacToe, 100)))
}
