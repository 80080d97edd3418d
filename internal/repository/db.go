package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository can run either directly against the pool or inside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Lazy-create paths (ledger init, quota record creation, account creation)
// treat it as "someone else got there first" and re-read.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS accounts (
			id                 TEXT PRIMARY KEY,
			auth_user_id       TEXT NOT NULL UNIQUE,
			email              TEXT NOT NULL,
			name               TEXT NOT NULL DEFAULT '',
			tier               TEXT NOT NULL DEFAULT 'guest',
			current_position   TEXT NOT NULL DEFAULT '',
			target_position    TEXT NOT NULL DEFAULT '',
			city               TEXT NOT NULL DEFAULT '',
			profile_completion INT  NOT NULL DEFAULT 0,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS onboarding_progress (
			id           TEXT PRIMARY KEY,
			account_id   TEXT NOT NULL REFERENCES accounts(id),
			step_number  INT  NOT NULL,
			step_name    TEXT NOT NULL,
			completed    BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (account_id, step_name)
		);
		CREATE INDEX IF NOT EXISTS idx_onboarding_account ON onboarding_progress(account_id);

		CREATE TABLE IF NOT EXISTS upload_quota (
			id           TEXT PRIMARY KEY,
			account_id   TEXT NOT NULL REFERENCES accounts(id),
			year         INT  NOT NULL,
			month        INT  NOT NULL,
			upload_count INT  NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (account_id, year, month)
		);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id                   TEXT PRIMARY KEY,
			account_id           TEXT NOT NULL UNIQUE REFERENCES accounts(id),
			customer_id          TEXT NOT NULL,
			subscription_id      TEXT NOT NULL,
			plan_type            TEXT NOT NULL,
			status               TEXT NOT NULL,
			current_period_start TIMESTAMPTZ NOT NULL,
			current_period_end   TIMESTAMPTZ NOT NULL,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_customer ON subscriptions(customer_id);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_external ON subscriptions(subscription_id);

		CREATE TABLE IF NOT EXISTS subscription_history (
			id              TEXT PRIMARY KEY,
			account_id      TEXT NOT NULL,
			subscription_id TEXT NOT NULL,
			event_type      TEXT NOT NULL,
			old_status      TEXT,
			new_status      TEXT,
			old_plan        TEXT,
			new_plan        TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_history_account ON subscription_history(account_id);

		CREATE TABLE IF NOT EXISTS resumes (
			id            TEXT PRIMARY KEY,
			account_id    TEXT NOT NULL REFERENCES accounts(id),
			file_name     TEXT NOT NULL,
			file_path     TEXT NOT NULL,
			file_size     BIGINT NOT NULL,
			is_current    BOOLEAN NOT NULL DEFAULT TRUE,
			version_label TEXT NOT NULL DEFAULT '',
			analysis      JSONB,
			analyzed_at   TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_resumes_account ON resumes(account_id);

		CREATE TABLE IF NOT EXISTS work_experiences (
			id           TEXT PRIMARY KEY,
			account_id   TEXT NOT NULL REFERENCES accounts(id),
			company_name TEXT NOT NULL,
			job_title    TEXT NOT NULL,
			start_date   DATE,
			end_date     DATE,
			is_current   BOOLEAN NOT NULL DEFAULT FALSE,
			description  TEXT NOT NULL DEFAULT '',
			location     TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_experiences_account ON work_experiences(account_id);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
