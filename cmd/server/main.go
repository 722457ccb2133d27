package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"chart-prophet/internal/analyzer"
	"chart-prophet/internal/bot"
	"chart-prophet/internal/cache"
	"chart-prophet/internal/config"
	"chart-prophet/internal/db"
	"chart-prophet/internal/handler"
	"chart-prophet/internal/job"
	"chart-prophet/internal/repository"
	"chart-prophet/internal/service"
	"chart-prophet/internal/vision"
	"chart-prophet/pkg/errorreporting"
	"chart-prophet/pkg/logging"
	"chart-prophet/pkg/tracing"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "chart-prophet/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	setupLoggerFunc        = logging.Setup
	loadConfigFunc         = config.Load
	setupSentryFunc        = errorreporting.Setup
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newTradeRepoFunc       = repository.NewTradeRepository
	runMigrationsFunc      = func(r *repository.TradeRepository, ctx context.Context) error { return r.RunMigrations(ctx) }
	newStatsCacheFunc      = cache.NewStatsCache
	newTradeServiceFunc    = service.NewTradeService
	newVisionClientFunc    = vision.NewClient
	newAnalyzerFunc        = analyzer.New
	newStatsWarmerFunc     = job.NewStatsWarmer
	startStatsWarmerFunc   = func(w *job.StatsWarmer, ctx context.Context) { go w.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.New
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Chart Prophet API
// @version         1.0
// @description     Chart image analysis with a vision model plus a trade journal.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

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

	// Init Postgres and Redis
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

	// The journal only exists with a database behind it.
	var tradeService *service.TradeService
	if db.Pool != nil {
		tradeRepo := newTradeRepoFunc(db.Pool, tracer)
		if err := runMigrationsFunc(tradeRepo, ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		statsCache := newStatsCacheFunc(tracer, cache.Client, time.Duration(cfg.StatsCacheTTLSecs)*time.Second)
		tradeService = newTradeServiceFunc(tracer, tradeRepo, statsCache)

		warmer := newStatsWarmerFunc(tracer, tradeService, time.Duration(cfg.StatsWarmSecs)*time.Second)
		startStatsWarmerFunc(warmer, ctx)
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

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	var journal bot.Journal
	if tradeService != nil {
		journal = tradeService
	}
	if notifier := startTelegramBotFunc(chartAnalyzer, journal, analysisTimeout); notifier != nil && tradeService != nil {
		tradeService.SetNotifier(notifier)
	}

	h := newHandlerFunc(tracer, chartAnalyzer, tradeService, int64(cfg.MaxUploadMB)<<20)

	r := newRouterFunc()
	r.Use(
		handler.RequestID(),
		handler.Recovery(),
		sentrygin.New(sentrygin.Options{Repanic: true}),
		cors.Default(),
		otelgin.Middleware(tracing.ServiceName),
		handler.NoCache(),
	)

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func httpAddr(port int) string {
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}
