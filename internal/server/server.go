package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"go.uber.org/zap"
)

// Refresher is the scheduler surface the HTTP layer drives
type Refresher interface {
	Latest(accountID string) *domain.Snapshot
	RefreshNow(ctx context.Context, accountID string) *domain.Snapshot
	Untrack(accountID string)
}

// SnapshotStore reads and evicts snapshots published to the cache
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, accountID string) (*domain.Snapshot, error)
	DeleteSnapshot(ctx context.Context, accountID string) error
}

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Dependencies struct {
	Refresher Refresher
	Snapshots SnapshotStore
	Metrics   http.Handler
	Checks    map[string]HealthCheck
}

type Server struct {
	cfg    Config
	deps   Dependencies
	router *gin.Engine
	logger *zap.Logger
}

func New(cfg Config, deps Dependencies, logger *zap.Logger) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", s.health)
	if s.deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	accounts := router.Group("/api/accounts/:id")
	accounts.GET("/snapshot", s.getSnapshot)
	accounts.POST("/refresh", s.refresh)
	accounts.DELETE("", s.untrack)

	return router
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.Checks))
	healthy := true
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "checks": checks})
}

func (s *Server) getSnapshot(c *gin.Context) {
	accountID := c.Param("id")

	if s.deps.Refresher != nil {
		if snapshot := s.deps.Refresher.Latest(accountID); snapshot != nil {
			c.JSON(http.StatusOK, snapshot)
			return
		}
	}

	if s.deps.Snapshots != nil {
		snapshot, err := s.deps.Snapshots.GetSnapshot(c.Request.Context(), accountID)
		if err != nil {
			s.logger.Warn("Failed to read cached snapshot", zap.String("account", accountID), zap.Error(err))
		}
		if snapshot != nil {
			c.JSON(http.StatusOK, snapshot)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
}

func (s *Server) refresh(c *gin.Context) {
	if s.deps.Refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh unavailable"})
		return
	}

	snapshot := s.deps.Refresher.RefreshNow(c.Request.Context(), c.Param("id"))
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh did not complete"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) untrack(c *gin.Context) {
	accountID := c.Param("id")
	if s.deps.Refresher != nil {
		s.deps.Refresher.Untrack(accountID)
	}
	if s.deps.Snapshots != nil {
		if err := s.deps.Snapshots.DeleteSnapshot(c.Request.Context(), accountID); err != nil {
			s.logger.Warn("Failed to evict cached snapshot", zap.String("account", accountID), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
