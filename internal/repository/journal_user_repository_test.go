package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

func newTestJournalUserRepo(pool PgxPool) *JournalUserRepository {
	return NewJournalUserRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))
}

func TestJournalUserRunMigrations(t *testing.T) {
	pool := &tradeStubPool{}
	if err := newTestJournalUserRepo(pool).RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "journal_users") {
		t.Fatalf("expected journal_users schema, got %v", pool.execSQL)
	}
}

func TestJournalUserFindByFingerprintReturnsUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	pool := &tradeStubPool{
		row: []any{
			int64(1), "alice", "ssh-ed25519 AAAA...", "SHA256:abc123", true, (*time.Time)(nil), now,
		},
	}

	user, err := newTestJournalUserRepo(pool).FindByFingerprint(context.Background(), "SHA256:abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID != 1 || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.LastLoginAt != nil {
		t.Fatalf("expected no last login, got %v", user.LastLoginAt)
	}
	if len(pool.lastArgs) != 1 || pool.lastArgs[0] != "SHA256:abc123" {
		t.Fatalf("expected fingerprint arg, got %v", pool.lastArgs)
	}
}

func TestJournalUserFindByFingerprintNotFound(t *testing.T) {
	pool := &tradeStubPool{rowErr: pgx.ErrNoRows}

	user, err := newTestJournalUserRepo(pool).FindByFingerprint(context.Background(), "SHA256:unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestJournalUserFindByFingerprintPropagatesErrors(t *testing.T) {
	pool := &tradeStubPool{rowErr: errors.New("connection reset")}

	if _, err := newTestJournalUserRepo(pool).FindByFingerprint(context.Background(), "SHA256:x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestJournalUserUpdateLastLoginExecs(t *testing.T) {
	pool := &tradeStubPool{}

	if err := newTestJournalUserRepo(pool).UpdateLastLogin(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pool.lastSQL, "last_login_at = NOW()") || pool.lastArgs[0] != int64(7) {
		t.Fatalf("unexpected exec: %s %v", pool.lastSQL, pool.lastArgs)
	}
}
