package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/BaSui01/podstudio/api/handlers"
	"github.com/BaSui01/podstudio/config"
	"github.com/BaSui01/podstudio/internal/metrics"
	"github.com/BaSui01/podstudio/internal/server"
	"github.com/BaSui01/podstudio/internal/telemetry"
	"github.com/BaSui01/podstudio/llm/gemini"
	"github.com/BaSui01/podstudio/studio"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// metricsNamespace prefixes every Prometheus series exported by the process.
const metricsNamespace = "podstudio"

// skipAuthPaths are reachable without caller credentials.
var skipAuthPaths = []string{"/health", "/healthz", "/ready", "/readyz", "/version"}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 PodStudio 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler *handlers.HealthHandler
	taskHandler   *handlers.TaskHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例，otel 可为 nil
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		otel:   otel,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector(metricsNamespace, s.logger)

	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("api_key_auth", len(s.cfg.Server.APIKeys) > 0),
		zap.Bool("jwt_auth", s.cfg.Server.JWT.Enabled),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initHandlers 构建进程级 Gemini client 与任务分发器
func (s *Server) initHandlers() {
	client := gemini.NewClient(gemini.Config{
		APIKey:  s.cfg.Gemini.APIKey,
		BaseURL: s.cfg.Gemini.BaseURL,
		Timeout: s.cfg.Gemini.Timeout,
	}, s.logger, gemini.WithRecorder(s.metricsCollector))

	if !client.HasAPIKey() {
		// 不阻止启动：调用时由上游返回认证错误
		s.logger.Warn("Gemini API key not configured, task calls will fail until it is set")
	}

	svc := studio.NewService(client, studio.Models{
		Text:      s.cfg.Gemini.TextModel,
		ImageEdit: s.cfg.Gemini.ImageEditModel,
		ImageGen:  s.cfg.Gemini.ImageGenModel,
	}, s.logger)
	registry := studio.NewRegistry(svc)

	s.taskHandler = handlers.NewTaskHandler(registry, s.logger, s.cfg.Server.MaxBodyBytes, s.metricsCollector)

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewAPIKeyHealthCheck(client.HasAPIKey))

	s.logger.Info("Handlers initialized", zap.Any("tasks", registry.Names()))
}

// routes 注册路由
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// 任务入口
	mux.Handle("/api/v1/tasks", s.taskHandler)
	mux.Handle("/", s.taskHandler)

	return mux
}

// handler 构建带中间件链的根 handler
func (s *Server) handler(ctx context.Context) http.Handler {
	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
	}
	if len(s.cfg.Server.APIKeys) > 0 {
		middlewares = append(middlewares,
			APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger))
	}
	if s.cfg.Server.JWT.Enabled {
		middlewares = append(middlewares, JWTAuth(s.cfg.Server.JWT, skipAuthPaths, s.logger))
	}
	middlewares = append(middlewares,
		RateLimiter(ctx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger))

	return Chain(s.routes(), middlewares...)
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

func (s *Server) startHTTPServer() error {
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	s.httpManager = server.NewManager(s.handler(rateLimiterCtx), server.Config{
		Name:            "api",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Name:            "metrics",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.ReadTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 阻塞直到收到 SIGINT/SIGTERM 或任一服务器异常退出，然后优雅关闭
func (s *Server) WaitForShutdown() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		s.logger.Info("received shutdown signal")
	case err := <-s.httpManager.Errors():
		s.logger.Error("HTTP server exited unexpectedly", zap.Error(err))
	case err := <-s.metricsManager.Errors():
		s.logger.Error("metrics server exited unexpectedly", zap.Error(err))
	}

	if err := s.Shutdown(context.Background()); err != nil {
		s.logger.Error("shutdown error", zap.Error(err))
	}
}

// Shutdown 并行关闭 HTTP 与 metrics 服务器，随后刷新遥测数据
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Starting graceful shutdown...")

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	var g errgroup.Group
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		m := m
		g.Go(func() error { return m.Shutdown(ctx) })
	}
	err := g.Wait()

	if s.otel != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if otelErr := s.otel.Shutdown(shutdownCtx); otelErr != nil {
			s.logger.Warn("telemetry shutdown error", zap.Error(otelErr))
		}
	}

	s.logger.Info("Graceful shutdown completed")
	return err
}
