package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turnstake/backend/internal/identity"
	"github.com/turnstake/backend/internal/middleware"
	"github.com/turnstake/backend/internal/wallet"
)

// GetProfile returns the authenticated player's own record
func GetProfile(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := ids.GetUser(c.Request.Context(), middleware.PlayerID(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		c.JSON(http.StatusOK, player)
	}
}

// GetBalance returns both balance ledgers for the authenticated player
func GetBalance(w *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		real, virtual, err := w.Balance(c.Request.Context(), middleware.PlayerID(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"real_balance":    real,
			"virtual_balance": virtual,
		})
	}
}
