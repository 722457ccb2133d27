package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var journalUserMigrations = []string{
	`CREATE TABLE IF NOT EXISTS journal_users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL,
		public_key    TEXT NOT NULL,
		fingerprint   TEXT NOT NULL UNIQUE,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// JournalUser is an SSH key allowed to open the trade journal.
type JournalUser struct {
	ID          int64
	Username    string
	PublicKey   string
	Fingerprint string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

type JournalUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewJournalUserRepository(pool PgxPool, tracer trace.Tracer) *JournalUserRepository {
	return &JournalUserRepository{pool: pool, tracer: tracer}
}

func (r *JournalUserRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "journal-user-repo.run-migrations")
	defer span.End()

	for _, stmt := range journalUserMigrations {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// FindByFingerprint returns nil without error when no active user owns the
// key.
func (r *JournalUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*JournalUser, error) {
	_, span := r.tracer.Start(ctx, "journal-user-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, username, public_key, fingerprint, is_active, last_login_at, created_at
		 FROM journal_users
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	var u JournalUser
	err := row.Scan(&u.ID, &u.Username, &u.PublicKey, &u.Fingerprint, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("journal_user_id", u.ID))
	return &u, nil
}

func (r *JournalUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, span := r.tracer.Start(ctx, "journal-user-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE journal_users SET last_login_at = NOW() WHERE id = $1`,
		userID,
	)
	return err
}
