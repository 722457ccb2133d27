package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"chart-prophet/internal/cache"
	"chart-prophet/internal/config"
	"chart-prophet/internal/db"
	"chart-prophet/internal/repository"
	"chart-prophet/internal/service"
	"chart-prophet/internal/tui"
	"chart-prophet/pkg/errorreporting"
	"chart-prophet/pkg/logging"
	"chart-prophet/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc           = godotenv.Load
	setupLoggerFunc       = logging.Setup
	loadConfigFunc        = config.Load
	setupSentryFunc       = errorreporting.Setup
	initPostgresFunc      = db.InitPostgres
	initRedisFunc         = cache.InitRedis
	initTracerFunc        = tracing.InitTracer
	newTradeRepoFunc      = repository.NewTradeRepository
	runMigrationsFunc     = func(r *repository.TradeRepository, ctx context.Context) error { return r.RunMigrations(ctx) }
	newStatsCacheFunc     = cache.NewStatsCache
	newTradeServiceFunc   = service.NewTradeService
	newJournalUsersFunc   = repository.NewJournalUserRepository
	newSSHServerFunc      = wish.NewServer
	startSSHServerFunc    = func(s *ssh.Server) error { return s.ListenAndServe() }
	shutdownSSHServerFunc = func(s *ssh.Server, ctx context.Context) error { return s.Shutdown(ctx) }
	setupSignalNotify     = ossignal.Notify
	waitForSignalFunc     = func(quit <-chan os.Signal) { <-quit }
)

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

	var svc tui.Services
	var users journalUsers
	if db.Pool != nil {
		tradeRepo := newTradeRepoFunc(db.Pool, tracer)
		if err := runMigrationsFunc(tradeRepo, ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		statsCache := newStatsCacheFunc(tracer, cache.Client, time.Duration(cfg.StatsCacheTTLSecs)*time.Second)
		tradeService := newTradeServiceFunc(tracer, tradeRepo, statsCache)
		svc.Trades = tradeService
		svc.Stats = tradeService

		userRepo := newJournalUsersFunc(db.Pool, tracer)
		if err := userRepo.RunMigrations(ctx); err != nil {
			logger.Fatal("failed to run journal user migrations", zap.Error(err))
		}
		users = userRepo
	} else {
		logger.Warn("journal has no database, sessions will show an empty journal")
	}

	srv, err := newSSHServerFunc(serverOptions(cfg, svc, users)...)
	if err != nil {
		logger.Fatal("failed to create ssh server", zap.Error(err))
	}

	go func() {
		logger.Info("journal ssh server listening", zap.String("addr", srv.Addr))
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Error("journal ssh server failed", zap.Error(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("Shutting down journal server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownSSHServerFunc(srv, shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		logger.Error("journal server forced to shutdown", zap.Error(err))
	}
}

// journalUsers resolves SSH keys registered in the journal_users table.
type journalUsers interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.JournalUser, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

type journalUserKey struct{}

// serverOptions picks key auth in order: an authorized_keys file, then the
// journal_users table, then any key.
func serverOptions(cfg *config.Config, svc tui.Services, users journalUsers) []ssh.Option {
	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.JournalSSHBind, strconv.Itoa(cfg.JournalSSHPort))),
		wish.WithHostKeyPath(cfg.JournalSSHHostKey),
	}
	switch {
	case cfg.JournalSSHAuthorizedKeys != "":
		opts = append(opts, wish.WithAuthorizedKeys(cfg.JournalSSHAuthorizedKeys))
	case users != nil:
		opts = append(opts, wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			name, ok := authorizeKey(ctx, users, key)
			if ok {
				ctx.SetValue(journalUserKey{}, name)
			}
			return ok
		}))
	default:
		zap.L().Warn("no journal key registry configured, any public key may open the journal")
		opts = append(opts, wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }))
	}
	// Middleware runs last to first.
	opts = append(opts, wish.WithMiddleware(
		bubbletea.Middleware(teaHandler(svc)),
		activeterm.Middleware(),
		sessionLogging(),
	))
	return opts
}

func teaHandler(svc tui.Services) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()
		user := s.User()
		if name, ok := s.Context().Value(journalUserKey{}).(string); ok && name != "" {
			user = name
		}
		return newSessionModel(svc, user, pty.Window.Width, pty.Window.Height),
			[]tea.ProgramOption{tea.WithAltScreen()}
	}
}

// authorizeKey looks the key up by its SHA256 fingerprint and records the
// login. It returns the registered username.
func authorizeKey(ctx context.Context, users journalUsers, key gossh.PublicKey) (string, bool) {
	fingerprint := gossh.FingerprintSHA256(key)
	u, err := users.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		zap.L().Warn("journal key lookup failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		return "", false
	}
	if u == nil {
		zap.L().Info("rejected unknown journal key", zap.String("fingerprint", fingerprint))
		return "", false
	}
	if err := users.UpdateLastLogin(ctx, u.ID); err != nil {
		zap.L().Warn("failed to record journal login", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return u.Username, true
}

func newSessionModel(svc tui.Services, user string, width, height int) tui.AppModel {
	svc.Username = user
	m := tui.NewAppModel(svc)
	m.SetSize(width, height)
	return m
}

func sessionLogging() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			start := time.Now()
			fields := []zap.Field{
				zap.String("user", s.User()),
				zap.String("remote", s.RemoteAddr().String()),
			}
			zap.L().Info("journal session opened", fields...)
			next(s)
			zap.L().Info("journal session closed", append(fields, zap.Duration("duration", time.Since(start)))...)
		}
	}
}
