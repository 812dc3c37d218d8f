package linkage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Schema creates the registry tables. Loaded by EnsureSchema and by tests.
const Schema = `
CREATE TABLE IF NOT EXISTS identity_links (
	primary_id   TEXT NOT NULL,
	secondary_id TEXT NOT NULL,
	linked_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (primary_id, secondary_id)
);
CREATE TABLE IF NOT EXISTS known_incomes (
	primary_id    TEXT PRIMARY KEY,
	annual_income NUMERIC(14,2) NOT NULL,
	source        TEXT NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Connect opens a pgx pool for the registry database.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse registry dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the registry tables if needed.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure registry schema: %w", err)
	}
	return nil
}

// PostgresRegistry reads linkage and income records from PostgreSQL.
type PostgresRegistry struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRegistry(pool *pgxpool.Pool, timeout time.Duration) *PostgresRegistry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresRegistry{pool: pool, timeout: timeout}
}

func (r *PostgresRegistry) IsLinked(ctx context.Context, primaryID, secondaryID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var linked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM identity_links WHERE primary_id = $1 AND secondary_id = $2
		)`, primaryID, secondaryID).Scan(&linked)
	if err != nil {
		return false, classify(err, "linkage lookup")
	}
	return linked, nil
}

func (r *PostgresRegistry) LookupKnownIncome(ctx context.Context, primaryID string) (decimal.Decimal, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var raw string
	err := r.pool.QueryRow(ctx,
		`SELECT annual_income::text FROM known_incomes WHERE primary_id = $1`, primaryID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, classify(err, "income lookup")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse known income: %w", err)
	}
	return amount, true, nil
}

// Link records a primary/secondary pair. Used by seeding and tests.
func (r *PostgresRegistry) Link(ctx context.Context, primaryID, secondaryID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identity_links (primary_id, secondary_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, primaryID, secondaryID)
	if err != nil {
		return fmt.Errorf("insert identity link: %w", err)
	}
	return nil
}

// RecordIncome upserts a known income figure.
func (r *PostgresRegistry) RecordIncome(ctx context.Context, primaryID string, amount decimal.Decimal, source string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO known_incomes (primary_id, annual_income, source) VALUES ($1, $2::numeric, $3)
		ON CONFLICT (primary_id) DO UPDATE SET annual_income = EXCLUDED.annual_income, source = EXCLUDED.source, recorded_at = now()`,
		primaryID, amount.String(), source)
	if err != nil {
		return fmt.Errorf("upsert known income: %w", err)
	}
	return nil
}
