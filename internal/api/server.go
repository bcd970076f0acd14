package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/pipeline"
)

// Server exposes a read-only informational HTTP surface over the running
// pipeline: health, counters and the most recent envelope.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	server *http.Server
	stats  *pipeline.Stats
}

func NewServer(cfg *config.Config, stats *pipeline.Stats) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		router: gin.New(),
		stats:  stats,
	}

	s.router.Use(gin.Recovery())
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/report", s.handleReport)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"camera_id": s.cfg.CameraID,
		"version":   s.cfg.Version,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"camera_id": s.cfg.CameraID,
		"location":  s.cfg.Location,
		"pipeline":  s.stats.Snapshot(),
	})
}

func (s *Server) handleReport(c *gin.Context) {
	envelope := s.stats.LastEnvelope()
	if envelope == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report available yet"})
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.Port).Msg("Starting status API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
