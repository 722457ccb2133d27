package db

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pool stays nil when DATABASE_URL is unset; callers treat that as
// "journal disabled".
var Pool *pgxpool.Pool

func InitPostgres(ctx context.Context) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		zap.L().Info("DATABASE_URL not set, skipping Postgres connection")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		zap.L().Fatal("failed to connect to Postgres", zap.Error(err))
	}
	if err := pool.Ping(ctx); err != nil {
		zap.L().Fatal("failed to ping Postgres", zap.Error(err))
	}
	Pool = pool
	zap.L().Info("Connected to Postgres")
}
