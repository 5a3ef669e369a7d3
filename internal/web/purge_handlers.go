// internal/web/purge_handlers.go
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unifimon/internal/database"
)

// DELETE /api/purge - remove orphaned hosts, stale statuses and counters
func (s *Server) purgeAll(c *gin.Context) {
	hk := s.engine.Housekeeper()
	if hk == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Store does not support housekeeping"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	report, err := hk.PurgeAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to purge stale data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge stale data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Stale data purged successfully",
		"data":      report,
		"timestamp": time.Now(),
	})
}

// GET /api/database/stats
func (s *Server) getDatabaseStats(c *gin.Context) {
	ext, ok := s.store.(database.ExtendedStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Store does not report statistics"})
		return
	}

	stats, err := ext.GetDatabaseStats(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to get database stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get database stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
