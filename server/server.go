// Package server exposes the HTTP and WebSocket API: document upload
// and management, grounded Q&A, quiz generation, alerts and the scan
// trigger.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmintel/core/internal/types"
	"github.com/pharmintel/core/pkg/ingest"
	"github.com/pharmintel/core/pkg/rag"
	"github.com/pharmintel/core/pkg/scraper"
)

type Config struct {
	Addr string
	// IdentityHeader names the header carrying the caller identity,
	// X-User-Id by default.
	IdentityHeader string
	// CronSecret authorizes POST /api/scan.
	CronSecret string
}

type Server struct {
	config  Config
	ingest  *ingest.Service
	rag     *rag.Service
	docs    types.DocumentStore
	sources types.SourceStore
	scanner *scraper.Scanner
	logger  *zap.Logger
}

func New(config Config, ingestSvc *ingest.Service, ragSvc *rag.Service, docs types.DocumentStore, sources types.SourceStore, scanner *scraper.Scanner, logger *zap.Logger) *Server {
	if config.IdentityHeader == "" {
		config.IdentityHeader = "X-User-Id"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:  config,
		ingest:  ingestSvc,
		rag:     ragSvc,
		docs:    docs,
		sources: sources,
		scanner: scanner,
		logger:  logger,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/scan", s.requireCronSecret(), s.handleScan)

	authed := api.Group("")
	authed.Use(s.requireIdentity())
	{
		authed.POST("/documents", s.handleUpload)
		authed.GET("/documents", s.handleListDocuments)
		authed.DELETE("/documents/:id", s.handleDeleteDocument)
		authed.POST("/documents/:id/ask", s.handleAsk)
		authed.POST("/documents/:id/quiz", s.handleQuiz)
		authed.GET("/alerts", s.handleListAlerts)
		authed.GET("/ws", s.handleWS)
	}

	return router
}

// HTTPServer wraps the router in an http.Server ready for graceful
// shutdown by the caller.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Router(),
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}
