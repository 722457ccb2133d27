package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"chart-prophet/internal/analyzer"
	"chart-prophet/internal/cache"
	"chart-prophet/internal/config"
	"chart-prophet/internal/db"
	mcpserver "chart-prophet/internal/mcp"
	"chart-prophet/internal/repository"
	"chart-prophet/internal/service"
	"chart-prophet/internal/vision"
	"chart-prophet/pkg/errorreporting"
	"chart-prophet/pkg/logging"
	"chart-prophet/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	loadEnvFunc         = godotenv.Load
	setupLoggerFunc     = logging.Setup
	loadConfigFunc      = config.Load
	setupSentryFunc     = errorreporting.Setup
	initPostgresFunc    = db.InitPostgres
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	newTradeRepoFunc    = repository.NewTradeRepository
	runMigrationsFunc   = func(r *repository.TradeRepository, ctx context.Context) error { return r.RunMigrations(ctx) }
	newStatsCacheFunc   = cache.NewStatsCache
	newTradeServiceFunc = service.NewTradeService
	newVisionClientFunc = vision.NewClient
	newAnalyzerFunc     = analyzer.New
	newMCPServerFunc    = mcpserver.NewServer
	newMCPHandlerFunc   = mcpserver.NewHTTPTransportHandler
	runStdioFunc        = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()

	// zap writes to stderr, which keeps stdout free for the stdio transport.
	logger, err := setupLoggerFunc()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := loadConfigFunc()
	if setupSentryFunc(errorreporting.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		SampleRate:  cfg.SentrySampleRate,
	}) {
		defer errorreporting.Flush()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		logger.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("error shutting down tracer provider", zap.Error(err))
		}
	}()

	var journal mcpserver.TradeJournal
	if db.Pool != nil {
		tradeRepo := newTradeRepoFunc(db.Pool, tracer)
		if err := runMigrationsFunc(tradeRepo, ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		statsCache := newStatsCacheFunc(tracer, cache.Client, time.Duration(cfg.StatsCacheTTLSecs)*time.Second)
		journal = newTradeServiceFunc(tracer, tradeRepo, statsCache)
	}

	analysisTimeout := time.Duration(cfg.AnalysisTimeoutSecs) * time.Second
	visionClient := newVisionClientFunc(tracer, vision.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: analysisTimeout,
	})
	policy := analyzer.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.AnalysisMaxAttempts
	chartAnalyzer := newAnalyzerFunc(tracer, visionClient, policy)

	mcpSrv := newMCPServerFunc(tracer, chartAnalyzer, journal, mcpserver.ServerConfig{
		RequestTimeout:  time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
		AnalysisTimeout: analysisTimeout,
		AnalysesPerMin:  cfg.MCPAnalysesPerMin,
	})

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			logger.Fatal("mcp stdio server failed", zap.Error(err))
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			logger.Fatal("mcp http server failed", zap.Error(err))
		}
	default:
		logger.Fatal("unsupported MCP_TRANSPORT", zap.String("transport", cfg.MCPTransport))
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    maxBodyBytes(cfg.MaxUploadMB),
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		zap.L().Info("mcp http server listening", zap.String("addr", addr))
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			zap.L().Error("mcp http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}

// maxBodyBytes leaves room for a base64-encoded chart of the configured
// upload size plus the JSON-RPC envelope.
func maxBodyBytes(uploadMB int) int64 {
	if uploadMB <= 0 {
		return 0
	}
	raw := int64(uploadMB) << 20
	return raw*4/3 + 1<<20
}
