// Package server exposes the log buffer, panel controller and demo stores
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"logpanel/internal/auth"
	"logpanel/internal/dashboard"
	"logpanel/internal/demo"
	"logpanel/internal/logger"
	"logpanel/internal/menu"
	"logpanel/internal/panel"
	"logpanel/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Options wires the stores served by a Server. Controller is required; the
// routes of a nil store are not registered.
type Options struct {
	Controller *panel.Controller
	Dashboard  *dashboard.Store
	Demo       *demo.Store
	Auth       *auth.Service
	Routes     []menu.Route
	// RequireAuth protects dashboard routes with tokens issued by Auth.
	RequireAuth bool
	// RateLimit is the number of log submissions per client per minute.
	RateLimit int
	Burst     int
	// MaxBodyBytes caps log submission bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Location     *time.Location
	ExportBase   string
	Registry     *prometheus.Registry
	Logger       *slog.Logger
	Now          func() time.Time
}

// DefaultMaxBodyBytes is the default cap on log submission bodies.
const DefaultMaxBodyBytes = 1 << 20

// Server serves a log panel over HTTP.
type Server struct {
	opts    Options
	logs    *store.Store
	ctrl    *panel.Controller
	metrics *Metrics
	log     *slog.Logger
	engine  *gin.Engine
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.ExportBase == "" {
		opts.ExportBase = "logs"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		opts: opts,
		logs: opts.Controller.Store(),
		ctrl: opts.Controller,
		log:  logger.OrDefault(opts.Logger),
	}
	s.metrics = NewMetrics(opts.Registry, s.logs)
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Metrics returns the collectors registered by the server.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.metrics.middleware())
	router.Use(s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")

	logs := api.Group("/logs")
	logs.GET("", s.listLogs)
	logs.POST("", newRateLimiter(s.opts.RateLimit, s.opts.Burst).middleware(), s.createLogs)
	logs.DELETE("", s.clearLogs)
	logs.DELETE("/:id", s.removeLog)
	logs.GET("/stats", s.logStats)
	logs.GET("/options", s.logOptions)
	logs.GET("/export", s.exportLogs)

	api.GET("/panel", s.panelState)
	api.POST("/panel", s.updatePanel)

	api.GET("/menu", s.menu)

	if s.opts.Dashboard != nil {
		dash := api.Group("/dashboard")
		if s.opts.RequireAuth && s.opts.Auth != nil {
			dash.Use(requireAuth(s.opts.Auth))
		}
		dash.GET("", s.dashboardView)
		dash.POST("/refresh", s.refreshDashboard)
	}

	if s.opts.Demo != nil {
		d := api.Group("/demo")
		d.GET("", s.demoState)
		d.POST("/mode", s.switchDemoMode)
		d.POST("/samples/:id", s.generateSample)
	}

	if s.opts.Auth != nil {
		api.POST("/login", s.login)
		api.POST("/logout", s.logout)
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			s.log.Error("request failed", append(attrs, "error", c.Errors.String())...)
			return
		}
		s.log.Debug("request", attrs...)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
