// Package server exposes the detector and blacklist management over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"phishjudge/pkg/detector"
	"phishjudge/pkg/logger"
	"phishjudge/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Checker judges one URL.
type Checker interface {
	Check(ctx context.Context, rawURL string) (*detector.Verdict, error)
}

// BlacklistStore is the managed blacklist. Writes persist and republish the
// cached set before returning.
type BlacklistStore interface {
	List() []string
	Len() int
	Replace(domains []string) error
	Add(domain string) error
	Remove(domain string) (bool, error)
	Reload() error
}

type Config struct {
	Addr    string
	Debug   bool
	Version string
	// AllowedOrigins may call the blacklist routes from a browser. "*" allows
	// any origin. /check and /health are open to every origin.
	AllowedOrigins []string
}

type Server struct {
	router    *gin.Engine
	http      *http.Server
	checker   Checker
	blacklist BlacklistStore
	metrics   *metrics.Metrics
	version   string
	log       logger.Logger
}

func New(cfg Config, checker Checker, blacklist BlacklistStore, m *metrics.Metrics, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recoveryMiddleware(log))
	router.Use(loggerMiddleware(log))
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		checker:   checker,
		blacklist: blacklist,
		metrics:   m,
		version:   cfg.Version,
		log:       log,
	}
	s.routes()
	m.SetBlacklistSize(blacklist.Len())

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.GET("/check", s.handleCheck)
	s.router.GET("/health", s.handleHealth)

	bl := s.router.Group("/blacklist")
	bl.GET("", s.handleListBlacklist)
	bl.PUT("", s.handleReplaceBlacklist)
	bl.POST("", s.handleAddBlacklist)
	bl.POST("/reload", s.handleReloadBlacklist)
	bl.DELETE("/:domain", s.handleRemoveBlacklist)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
