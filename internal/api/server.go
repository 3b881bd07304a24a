package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"EquityLens/internal/dashboard"
	"EquityLens/internal/logger"
)

// Server HTTP API server
type Server struct {
	router     *gin.Engine
	manager    *dashboard.Manager
	httpServer *http.Server
	addr       string
}

// NewServer creates the API server for m.
func NewServer(m *dashboard.Manager, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	s := &Server{
		router:  router,
		manager: m,
		addr:    addr,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// corsMiddleware CORS middleware
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debugf("http request")
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.Any("/health", s.handleHealth)

		// Settings
		api.GET("/settings", s.handleGetSettings)
		api.PUT("/settings", s.handleUpdateSettings)
		api.POST("/refresh", s.handleRefresh)

		// Backtest metrics, per scenario
		api.GET("/summary", s.handleSummary)
		api.GET("/backtests", s.handleBacktests)
		api.GET("/equity", s.handleEquity)
		api.GET("/monthly", s.handleMonthly)
		api.GET("/trades", s.handleTrades)
		api.GET("/add-triggers", s.handleAddTriggers)

		// Monte-Carlo
		mc := api.Group("/montecarlo")
		{
			mc.GET("/summary", s.handleMCSummary)
			mc.GET("/fan", s.handleMCFan)
			mc.GET("/path-stats", s.handlePathStats)
		}
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	logger.Infof("API server listening on %s", s.addr)
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
