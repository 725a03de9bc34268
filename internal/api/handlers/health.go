package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck reports server health and dependency reachability
func HealthCheck(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		overall := "ok"
		dbStatus, redisStatus := "ok", "ok"

		if err := db.PingContext(c.Request.Context()); err != nil {
			dbStatus = "unreachable"
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "unreachable"
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":  overall,
			"service": "turnstake-api",
			"version": version,
			"uptime":  time.Since(startTime).String(),
			"db":      dbStatus,
			"redis":   redisStatus,
		})
	}
}
