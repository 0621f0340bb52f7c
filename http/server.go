// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"churnscope/db"
	"churnscope/ml"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	MaxUploadBytes int64
	PreviewRows    int
	ExportTTL      time.Duration
	ExportCapacity int
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		RequestTimeout: 30 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 10 << 20,
		PreviewRows:    10,
		ExportTTL:      15 * time.Minute,
		ExportCapacity: 64,
	}
}

// ActivityStore 预测活动记录
type ActivityStore interface {
	RecordActivity(ctx context.Context, a db.Activity) error
	Totals(ctx context.Context) (db.Totals, error)
	RecentActivity(ctx context.Context, limit int) ([]db.Activity, error)
	ModelLoads(ctx context.Context, limit int) ([]ml.ArtifactInfo, error)
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, predictor *ml.Predictor, store ActivityStore, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, predictor, store, logger),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// NewHandler 创建带中间件的路由
func NewHandler(config ServerConfig, predictor *ml.Predictor, store ActivityStore, logger *zap.Logger) http.Handler {
	metrics := NewMetrics()
	metrics.SetModel(predictor.Artifact().Info())

	a := &api{
		predictor:   predictor,
		store:       store,
		exports:     NewExportCache(config.ExportCapacity, config.ExportTTL),
		metrics:     metrics,
		logger:      logger,
		previewRows: config.PreviewRows,
		upgrader:    newUpgrader(config.AllowedOrigins),
	}
	metrics.watchExports(a.exports)

	mux := http.NewServeMux()
	a.register(mux)

	chain := Chain(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		TimeoutMiddleware(config.RequestTimeout),
		RequestSizeMiddleware(config.MaxUploadBytes),
	)
	return chain(mux)
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 优雅停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
