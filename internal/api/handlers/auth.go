package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/identity"
	"github.com/turnstake/backend/internal/middleware"
)

type loginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	PIN         string `json:"pin" binding:"required"`
}

// Login verifies phone number + PIN and issues a session JWT
func Login(ids *identity.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number and pin are required"})
			return
		}

		player, err := ids.GetUserByPhone(c.Request.Context(), req.PhoneNumber)
		if err != nil {
			// Same response for unknown phone and wrong PIN
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if !player.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(player.PinHash), []byte(req.PIN)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := middleware.GenerateToken(cfg, player.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		ids.TouchLastActive(c.Request.Context(), player.ID)

		c.JSON(http.StatusOK, gin.H{"token": token, "player": player})
	}
}
