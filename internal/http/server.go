// Package http exposes the liveness and readiness endpoints.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvbot_backend/platform/config"
	"cvbot_backend/platform/logger"
)

// NewServer builds the probe server. /healthz answers as long as the process
// runs; /readyz additionally pings the database.
func NewServer(cfg config.HTTPConfig, env string, pool *pgxpool.Pool, log *logger.Logger) *http.Server {
	if !strings.EqualFold(env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			log.DatabaseError("readiness ping", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
