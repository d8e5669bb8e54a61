package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/advisor"
	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/drill"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
	"github.com/ExclusiveAccount/shastra-shield/pkg/views"
)

// Server is the HTTP surface of the dashboard
type Server struct {
	config    config.Config
	router    *gin.Engine
	logger    *logrus.Logger
	sessions  *session.Store
	views     *views.Router
	drills    *drill.Simulator
	assistant *Assistant
	http      *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithSessionStore replaces the session store
func WithSessionStore(store *session.Store) Option {
	return func(s *Server) { s.sessions = store }
}

// WithDrillSimulator replaces the drill simulator
func WithDrillSimulator(sim *drill.Simulator) Option {
	return func(s *Server) { s.drills = sim }
}

// WithAdvisor sets the text advisor behind the assistant routes
func WithAdvisor(a *advisor.Advisor) Option {
	return func(s *Server) { s.assistant = NewAssistant(a, s.logger) }
}

// NewServer creates a dashboard server
func NewServer(cfg config.Config, logger *logrus.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		config: cfg,
		router: router,
		logger: logger,
		views:  views.NewRouter(cfg.Simulation),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Set default values if not specified
	if s.sessions == nil {
		s.sessions = session.NewStore(cfg.Simulation, logger, session.WithIdleTimeout(cfg.SessionIdleTimeout))
	}
	if s.drills == nil {
		s.drills = drill.NewSimulator(cfg.Simulation, logger)
	}
	if s.assistant == nil {
		s.assistant = NewAssistant(advisor.New(nil, cfg.AdvisorTimeout, logger), logger)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	if s.config.EnableCORS {
		s.router.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
		})
	}

	api := s.router.Group("/api", s.sessionMiddleware())
	{
		api.POST("/login", s.handleLogin)

		gated := api.Group("", s.requireAuth())
		gated.POST("/logout", s.handleLogout)
		gated.GET("/navigation", s.handleNavigation)
		gated.GET("/views/:selection", s.handleView)
		gated.POST("/protection", s.handleProtection)
		gated.POST("/drill", s.handleDrill)
		gated.GET("/devices", s.handleGetDevices)
		gated.POST("/devices", s.handleProvisionDevice)
		gated.GET("/alerts", s.handleGetAlerts)

		s.assistant.RegisterRoutes(gated)
	}
}

// SweepSessions drops idle sessions periodically until ctx is done
func (s *Server) SweepSessions(ctx context.Context) {
	interval := s.config.SessionIdleTimeout / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	s.sessions.Run(ctx, interval)
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting dashboard server on port %s", s.config.Port)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// requestLogger logs one line per request through logrus
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("Handled request")
	}
}
