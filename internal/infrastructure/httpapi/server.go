package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"GTMMonitor/internal/usecase"
)

// Server exposes the two trigger endpoints. Any failure inside a trigger is
// reported as {"error": ...} with HTTP 200; a single bad request never takes
// the process down.
type Server struct {
	engine   *gin.Engine
	pipeline *usecase.Pipeline
	trends   *usecase.TrendAggregator
	logger   *slog.Logger
}

// New builds the router.
func New(pipeline *usecase.Pipeline, trends *usecase.TrendAggregator, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		pipeline: pipeline,
		trends:   trends,
		logger:   logger,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/gtm", s.handleRun)
	engine.POST("/gtm_week", s.handleTrends)

	return s
}

// Handler exposes the underlying http.Handler for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener.
func (s *Server) Run(addr string) error {
	if s.logger != nil {
		s.logger.Info("http server listening", "addr", addr)
	}
	return s.engine.Run(addr)
}

func (s *Server) handleRun(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusOK, gin.H{"error": "pipeline is not configured"})
		return
	}

	summary, err := s.pipeline.Run(c.Request.Context(), false)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("pipeline run failed", "error", err)
		}
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "started", "result": summary})
}

func (s *Server) handleTrends(c *gin.Context) {
	if s.trends == nil {
		c.JSON(http.StatusOK, gin.H{"error": "trends analyzer is not configured"})
		return
	}

	snapshot := s.trends.Run(c.Request.Context())
	if snapshot.Error != "" {
		if s.logger != nil {
			s.logger.Error("trends run failed", "error", fmt.Errorf("%s", snapshot.Error))
		}
	}

	c.JSON(http.StatusOK, gin.H{"result": snapshot})
}
