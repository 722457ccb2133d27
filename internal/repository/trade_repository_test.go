package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"chart-prophet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

func newTestTradeRepo(pool PgxPool) *TradeRepository {
	return NewTradeRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))
}

func TestTradeRunMigrationsExecutesSchema(t *testing.T) {
	pool := &tradeStubPool{}
	if err := newTestTradeRepo(pool).RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != len(tradeMigrations) {
		t.Fatalf("expected %d statements, got %d", len(tradeMigrations), len(pool.execSQL))
	}
	if !strings.Contains(pool.execSQL[0], "CREATE TABLE IF NOT EXISTS trades") {
		t.Fatalf("unexpected first statement: %s", pool.execSQL[0])
	}
}

func TestTradeInsertReturnsGeneratedFields(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	pool := &tradeStubPool{row: []any{int64(7), created}}
	repo := newTestTradeRepo(pool)

	entry := 101.5
	got, err := repo.InsertTrade(context.Background(), domain.Trade{
		Symbol:         "BTCUSD",
		Recommendation: domain.RecommendationBuy,
		EntryPrice:     &entry,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 7 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected trade: %+v", got)
	}
	if len(pool.lastArgs) != 13 || pool.lastArgs[1] != "BUY" {
		t.Fatalf("unexpected insert args: %v", pool.lastArgs)
	}
}

func TestTradeListBuildsFilteredQuery(t *testing.T) {
	created := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	win := "win"
	pnl := 12.5
	pool := &tradeStubPool{rows: [][]any{{
		int64(1), created, "ETH", "SELL", "HIGH", "BEARISH", &win, &pnl, "RSI", "OVERBOUGHT", "BEARISH",
		(*float64)(nil), (*float64)(nil), "note", "raw",
	}}}
	repo := newTestTradeRepo(pool)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 3, 15, 0, 0, 0, time.UTC)
	trades, err := repo.ListTrades(context.Background(), domain.TradeFilter{
		StartDate:     &start,
		EndDate:       &end,
		IndicatorType: "RSI",
		Outcome:       "win",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 || trades[0].Recommendation != domain.RecommendationSell || *trades[0].Outcome != "win" {
		t.Fatalf("unexpected trades: %+v", trades)
	}
	for _, frag := range []string{"created_at >= $1", "created_at < $2", "indicator_type = $3", "outcome = $4", "ORDER BY created_at DESC"} {
		if !strings.Contains(pool.lastSQL, frag) {
			t.Fatalf("expected %q in query: %s", frag, pool.lastSQL)
		}
	}
	wantEnd := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	if got := pool.lastArgs[1].(time.Time); !got.Equal(wantEnd) {
		t.Fatalf("end date must be exclusive next-day bound, got %s", got)
	}
}

func TestTradeListPendingIncludesUnsettled(t *testing.T) {
	pool := &tradeStubPool{}
	if _, err := newTestTradeRepo(pool).ListTrades(context.Background(), domain.TradeFilter{Outcome: "pending", Limit: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pool.lastSQL, "outcome IS NULL") || !strings.Contains(pool.lastSQL, "LIMIT $2") {
		t.Fatalf("unexpected query: %s", pool.lastSQL)
	}
}

func TestTradeGetMissingReturnsNil(t *testing.T) {
	pool := &tradeStubPool{rowErr: pgx.ErrNoRows}
	got, err := newTestTradeRepo(pool).GetTrade(context.Background(), 9)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestTradeUpdateAndDeleteReportRowsAffected(t *testing.T) {
	pool := &tradeStubPool{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := newTestTradeRepo(pool)

	outcome := "loss"
	ok, err := repo.UpdateTrade(context.Background(), 3, domain.TradeUpdate{Outcome: &outcome})
	if err != nil || !ok {
		t.Fatalf("expected update to succeed, got %v, %v", ok, err)
	}
	if !strings.Contains(pool.lastSQL, "COALESCE($2, outcome)") {
		t.Fatalf("unexpected update sql: %s", pool.lastSQL)
	}

	pool.tag = pgconn.NewCommandTag("DELETE 0")
	ok, err = repo.DeleteTrade(context.Background(), 3)
	if err != nil || ok {
		t.Fatalf("expected missing delete to report false, got %v, %v", ok, err)
	}
}

type tradeStubPool struct {
	execSQL  []string
	lastSQL  string
	lastArgs []any
	tag      pgconn.CommandTag
	row      []any
	rowErr   error
	rows     [][]any
}

func (s *tradeStubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	s.lastSQL = sql
	s.lastArgs = args
	return s.tag, nil
}

func (s *tradeStubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (s *tradeStubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.lastSQL = sql
	s.lastArgs = args
	return &tradeStubRows{data: s.rows}, nil
}

func (s *tradeStubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.lastSQL = sql
	s.lastArgs = args
	return &tradeStubRow{values: s.row, err: s.rowErr}
}

type tradeStubRow struct {
	values []any
	err    error
}

func (r *tradeStubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignRow(r.values, dest)
}

type tradeStubRows struct {
	data [][]any
	idx  int
}

func (r *tradeStubRows) Close() {}

func (r *tradeStubRows) Err() error { return nil }

func (r *tradeStubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *tradeStubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *tradeStubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *tradeStubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	return assignRow(r.data[r.idx-1], dest)
}

func (r *tradeStubRows) Values() ([]any, error) { return nil, nil }

func (r *tradeStubRows) RawValues() [][]byte { return nil }

func (r *tradeStubRows) Conn() *pgx.Conn { return nil }

func assignRow(values []any, dest []any) error {
	if len(values) < len(dest) {
		return fmt.Errorf("row has %d values, %d requested", len(values), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("column %d: cannot assign %T to %s", i, values[i], target.Type())
		}
		target.Set(v)
	}
	return nil
}
