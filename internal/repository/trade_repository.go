package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chart-prophet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var tradeMigrations = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id               BIGSERIAL PRIMARY KEY,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		symbol           TEXT NOT NULL DEFAULT '',
		recommendation   TEXT NOT NULL DEFAULT 'HOLD',
		confidence_level TEXT NOT NULL DEFAULT '',
		trend_direction  TEXT NOT NULL DEFAULT '',
		outcome          TEXT,
		profit_loss      DOUBLE PRECISION,
		indicator_type   TEXT NOT NULL DEFAULT '',
		rsi_signal       TEXT NOT NULL DEFAULT '',
		macd_signal      TEXT NOT NULL DEFAULT '',
		entry_price      DOUBLE PRECISION,
		exit_price       DOUBLE PRECISION,
		notes            TEXT NOT NULL DEFAULT '',
		raw_analysis     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_indicator_type ON trades (indicator_type)`,
}

const tradeColumns = `id, created_at, symbol, recommendation, confidence_level, trend_direction,
	outcome, profit_loss, indicator_type, rsi_signal, macd_signal, entry_price, exit_price,
	notes, raw_analysis`

type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "trade-repo.run-migrations")
	defer span.End()

	for _, stmt := range tradeMigrations {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("trade migration: %w", err)
		}
	}
	return nil
}

// InsertTrade stores t and returns it with the generated id and timestamp.
func (r *TradeRepository) InsertTrade(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.insert-trade")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO trades (symbol, recommendation, confidence_level, trend_direction, outcome,
		                     profit_loss, indicator_type, rsi_signal, macd_signal, entry_price,
		                     exit_price, notes, raw_analysis)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		t.Symbol,
		string(t.Recommendation),
		t.ConfidenceLevel,
		t.TrendDirection,
		t.Outcome,
		t.ProfitLoss,
		t.IndicatorType,
		t.RSISignal,
		t.MACDSignal,
		t.EntryPrice,
		t.ExitPrice,
		t.Notes,
		t.RawAnalysis,
	)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return domain.Trade{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	span.SetAttributes(attribute.Int64("trade_id", t.ID))
	return t, nil
}

func (r *TradeRepository) GetTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.get-trade")
	defer span.End()

	row := r.pool.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id)
	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTrades returns trades newest first. An outcome of "pending" also
// matches trades that were never settled.
func (r *TradeRepository) ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.list-trades")
	defer span.End()

	args := make([]any, 0, 5)
	var sb strings.Builder
	sb.WriteString(`SELECT ` + tradeColumns + ` FROM trades WHERE 1=1`)
	writeDateFilter(&sb, &args, filter)

	if filter.IndicatorType != "" {
		args = append(args, filter.IndicatorType)
		sb.WriteString(fmt.Sprintf(" AND indicator_type = $%d", len(args)))
	}
	if filter.Outcome != "" {
		args = append(args, filter.Outcome)
		if filter.Outcome == domain.OutcomePending {
			sb.WriteString(fmt.Sprintf(" AND (outcome = $%d OR outcome IS NULL)", len(args)))
		} else {
			sb.WriteString(fmt.Sprintf(" AND outcome = $%d", len(args)))
		}
	}

	sb.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// UpdateTrade applies the non-nil fields of upd. It reports false when no
// trade has that id.
func (r *TradeRepository) UpdateTrade(ctx context.Context, id int64, upd domain.TradeUpdate) (bool, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.update-trade")
	defer span.End()
	span.SetAttributes(attribute.Int64("trade_id", id))

	tag, err := r.pool.Exec(ctx,
		`UPDATE trades SET
		     outcome = COALESCE($2, outcome),
		     profit_loss = COALESCE($3, profit_loss),
		     exit_price = COALESCE($4, exit_price),
		     notes = COALESCE($5, notes)
		 WHERE id = $1`,
		id, upd.Outcome, upd.ProfitLoss, upd.ExitPrice, upd.Notes,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TradeRepository) DeleteTrade(ctx context.Context, id int64) (bool, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.delete-trade")
	defer span.End()
	span.SetAttributes(attribute.Int64("trade_id", id))

	tag, err := r.pool.Exec(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// writeDateFilter treats EndDate as inclusive by comparing against the
// start of the following day.
func writeDateFilter(sb *strings.Builder, args *[]any, filter domain.TradeFilter) {
	if filter.StartDate != nil {
		*args = append(*args, truncateDay(*filter.StartDate))
		sb.WriteString(fmt.Sprintf(" AND created_at >= $%d", len(*args)))
	}
	if filter.EndDate != nil {
		*args = append(*args, truncateDay(*filter.EndDate).Add(24*time.Hour))
		sb.WriteString(fmt.Sprintf(" AND created_at < $%d", len(*args)))
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var t domain.Trade
	var recommendation string
	if err := row.Scan(
		&t.ID,
		&t.CreatedAt,
		&t.Symbol,
		&recommendation,
		&t.ConfidenceLevel,
		&t.TrendDirection,
		&t.Outcome,
		&t.ProfitLoss,
		&t.IndicatorType,
		&t.RSISignal,
		&t.MACDSignal,
		&t.EntryPrice,
		&t.ExitPrice,
		&t.Notes,
		&t.RawAnalysis,
	); err != nil {
		return domain.Trade{}, err
	}
	t.Recommendation = domain.Recommendation(recommendation)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
