package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turnstake/backend/internal/game"
	"github.com/turnstake/backend/internal/middleware"
)

// GetMatchStatus is the reconnect-resync poll: a participant fetches the
// current snapshot of a match by id.
func GetMatchStatus(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := mgr.MatchStatus(c.Param("id"), middleware.PlayerID(c))
		switch {
		case errors.Is(err, game.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		case errors.Is(err, game.ErrNotAParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a participant in this match"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load match"})
		default:
			c.JSON(http.StatusOK, snap)
		}
	}
}

// GetCurrentMatch returns the authenticated player's live match, if any
func GetCurrentMatch(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := mgr.MatchForPlayer(middleware.PlayerID(c))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active match"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// GetQueueStatus reports matchmaking depth per bucket and the live match count
func GetQueueStatus(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"buckets":        mgr.QueueDepths(),
			"active_matches": mgr.ActiveMatches(),
		})
	}
}
