package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tuncayozalici/ONERI-sub000/internal/api"
	"github.com/Tuncayozalici/ONERI-sub000/internal/cache"
	"github.com/Tuncayozalici/ONERI-sub000/internal/config"
	"github.com/Tuncayozalici/ONERI-sub000/internal/dashboard"
	"github.com/Tuncayozalici/ONERI-sub000/internal/importer"
	"github.com/Tuncayozalici/ONERI-sub000/internal/metrics"
	"github.com/Tuncayozalici/ONERI-sub000/internal/refresh"
	"github.com/Tuncayozalici/ONERI-sub000/internal/store"
	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

// Server HTTP 服务器，同时持有刷新驱动
type Server struct {
	router  *gin.Engine
	http    *http.Server
	store   *store.Store
	driver  *refresh.Driver
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewServer 按配置组装存储、缓存、刷新驱动与 API
func NewServer(cfg *config.AppConfig, logger *slog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	sqliteStore, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	snapshots := store.NewSnapshotStore(sqliteStore, logger)
	ttl := cache.NewTTLCache(cfg.Refresh.CacheSliding.Duration, cfg.Refresh.CacheAbsolute.Duration)
	provider := cache.NewProvider(ttl, snapshots, logger)

	m := metrics.New()
	m.RegisterCache(func() (uint64, uint64) {
		st := ttl.Stats()
		return st.Hits, st.Misses
	})

	extractor := importer.NewExtractor(workbook.NewDirSource(cfg.WorkbookPath()), logger).
		WithBackfill(cfg.BackfillSources())
	builder := importer.NewBuilder(extractor, logger)

	driver := refresh.NewDriver(refresh.Options{
		Builder:   builder,
		Saver:     snapshots,
		Publisher: provider,
		Recorder:  sqliteStore,
		Observer:  m,
		Interval:  cfg.Refresh.Interval.Duration,
		Logger:    logger.With("component", "refresh"),
	})

	handler := api.NewHandler(dashboard.NewService(provider), driver, sqliteStore)
	builder.OnProgress(handler.PublishProgress)

	s := &Server{
		router:  gin.New(),
		http:    &http.Server{ReadHeaderTimeout: 10 * time.Second},
		store:   sqliteStore,
		driver:  driver,
		metrics: m,
		logger:  logger,
	}
	s.setupRoutes(handler)
	s.http.Handler = s.router

	logger.Info("server configured",
		"workbook_dir", cfg.WorkbookPath(),
		"db_path", cfg.DBPath(),
		"refresh_interval", driver.Interval().String(),
	)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(handler *api.Handler) {
	s.router.Use(gin.Recovery(), s.requestLogger(), s.metrics.GinMiddleware())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		handler.RegisterRoutes(apiGroup)
	}

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// requestLogger 以 slog 记录请求
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartRefresh 启动后台刷新：立即刷新一次，之后按间隔刷新
func (s *Server) StartRefresh(ctx context.Context) {
	s.driver.Start(ctx)
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止刷新、关闭 HTTP 服务并关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	s.driver.Stop()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}

// Driver 获取刷新驱动（用于测试）
func (s *Server) Driver() *refresh.Driver {
	return s.driver
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
