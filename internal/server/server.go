package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookrag/internal/config"
	"bookrag/internal/helper"
	"bookrag/internal/rag"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	pipeline *rag.Pipeline
	cfg      *config.Config
	engine   *gin.Engine
}

func New(pipeline *rag.Pipeline, cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		pipeline: pipeline,
		cfg:      cfg,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleHealth)
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/ask", s.handleAsk)

	// Serve the source documents so viewer URLs resolve.
	if s.cfg.Server.ServeDocs {
		if _, err := os.Stat(s.cfg.RAG.DataDir); err == nil {
			s.engine.Static(s.cfg.Server.DocsMountPath, s.cfg.RAG.DataDir)
		}
	}
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	log.Info().Str("addr", s.cfg.Server.Addr).Msg("listening")
	return s.engine.Run(s.cfg.Server.Addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	return cors.New(corsCfg)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID, _ := helper.GenerateUUID()
		c.Set("request_id", reqID)
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}
