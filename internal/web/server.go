// internal/web/server.go
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"unifimon/internal/checkapi"
	"unifimon/internal/config"
	"unifimon/internal/database"
	"unifimon/internal/metrics"
	"unifimon/internal/monitoring"
)

// Server is the HTTP API and websocket feed over the monitoring engine.
type Server struct {
	config  *config.Config
	store   database.Store
	engine  *monitoring.Engine
	metrics *metrics.Collector
	router  *gin.Engine
	http    *http.Server

	wsMu      sync.Mutex
	wsClients map[*WSClient]bool
}

func NewServer(cfg *config.Config, store database.Store, engine *monitoring.Engine, collector *metrics.Collector) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    cfg,
		store:     store,
		engine:    engine,
		metrics:   collector,
		router:    gin.New(),
		wsClients: make(map[*WSClient]bool),
	}
	s.router.Use(accessLog, gin.Recovery(), allowCrossOrigin)
	s.routes()

	engine.OnStatus(s.publishStatus)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background. The
// system metrics refresh runs until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Port)
	if err != nil {
		return err
	}
	s.http = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	logrus.WithField("addr", ln.Addr().String()).Info("Web server listening")

	go s.refreshMetrics(ctx, 30*time.Second)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Web server stopped")
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.closeClients()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	api.GET("/health", s.health)
	api.GET("/build", s.getBuildInfo)
	api.GET("/stats", s.getStats)
	api.GET("/status", s.getStatus)
	api.GET("/plugins", s.getPlugins)
	api.GET("/graphing", s.getGraphing)
	api.GET("/database/stats", s.getDatabaseStats)
	api.DELETE("/purge", s.purgeAll)

	hosts := api.Group("/hosts")
	hosts.GET("", s.getHosts)
	hosts.GET("/:id", s.getHost)
	hosts.GET("/:id/services", s.getHostServices)
	hosts.GET("/:id/inventory", s.getHostInventory)
	hosts.POST("/:id/discover", s.discoverHost)

	s.router.GET("/ws", s.handleWebSocket)
	if s.config.Prometheus.Enabled {
		s.router.GET(s.config.Prometheus.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now(),
	})
}

// getStats counts the latest results per state.
func (s *Server) getStats(c *gin.Context) {
	statuses, err := s.store.GetStatus(c.Request.Context(), database.StatusFilters{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	counts := make(map[string]int, 4)
	for _, st := range []checkapi.State{checkapi.OK, checkapi.Warn, checkapi.Crit, checkapi.Unknown} {
		counts[st.Label()] = 0
	}
	for _, status := range statuses {
		counts[checkapi.State(status.ExitCode).Label()]++
	}
	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func (s *Server) refreshMetrics(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.metrics.UpdateSystemMetrics(ctx); err != nil {
			logrus.WithError(err).Warn("System metrics refresh failed")
		}
	}
}

// accessLog tags each request with an id and logs it at debug level.
func accessLog(c *gin.Context) {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-ID", id)

	start := time.Now()
	c.Next()
	logrus.WithFields(logrus.Fields{
		"request_id": id,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"took":       time.Since(start),
	}).Debug("HTTP request")
}

func allowCrossOrigin(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
	h.Set("Access-Control-Expose-Headers", "X-Request-ID")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
