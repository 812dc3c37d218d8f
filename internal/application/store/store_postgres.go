package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"enrollment/internal/application/models"
	dErrors "enrollment/pkg/domain-errors"
	"enrollment/pkg/platform/sentinel"
	txcontext "enrollment/pkg/platform/tx"
)

// Schema creates the application tables. The unique index on primary_id
// enforces one application per applicant.
const Schema = `
CREATE TABLE IF NOT EXISTS beneficiaries (
	application_id    TEXT PRIMARY KEY,
	session_id        TEXT NOT NULL,
	primary_id        TEXT NOT NULL,
	secondary_id      TEXT NOT NULL DEFAULT '',
	full_name         TEXT NOT NULL,
	date_of_birth     DATE,
	gender            TEXT NOT NULL DEFAULT '',
	marital_status    TEXT NOT NULL DEFAULT '',
	mobile            TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	address           TEXT NOT NULL DEFAULT '',
	district          TEXT NOT NULL DEFAULT '',
	taluka            TEXT NOT NULL DEFAULT '',
	village           TEXT NOT NULL DEFAULT '',
	annual_income     NUMERIC(14,2) NOT NULL,
	income_source     TEXT NOT NULL DEFAULT '',
	ration_card_color TEXT NOT NULL DEFAULT '',
	bank_account      TEXT NOT NULL DEFAULT '',
	bank_ifsc         TEXT NOT NULL DEFAULT '',
	bank_name         TEXT NOT NULL DEFAULT '',
	submitted_at      TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS beneficiaries_primary_id_key ON beneficiaries (primary_id);

CREATE TABLE IF NOT EXISTS application_documents (
	application_id TEXT NOT NULL REFERENCES beneficiaries (application_id),
	kind           TEXT NOT NULL,
	reference      TEXT NOT NULL DEFAULT '',
	fields         JSONB NOT NULL DEFAULT '{}',
	uploaded_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (application_id, kind)
);
`

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint.
const uniqueViolation = "23505"

const defaultTxTimeout = 10 * time.Second

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists applications. Inside RunInTx every call joins the
// transaction carried by the context.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultTxTimeout}
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin application tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit application tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	var dob sql.NullTime
	if b.DateOfBirth != nil {
		dob = sql.NullTime{Time: *b.DateOfBirth, Valid: true}
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO beneficiaries (
			application_id, session_id, primary_id, secondary_id, full_name, date_of_birth,
			gender, marital_status, mobile, email, address, district, taluka, village,
			annual_income, income_source, ration_card_color, bank_account, bank_ifsc, bank_name,
			submitted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		b.ApplicationID, b.SessionID, b.PrimaryID, b.SecondaryID, b.FullName, dob,
		b.Gender, b.MaritalStatus, b.Mobile, b.Email, b.Address, b.District, b.Taluka, b.Village,
		b.AnnualIncome.StringFixed(2), b.IncomeSource, b.RationCardColor, b.BankAccount, b.BankIFSC, b.BankName,
		b.SubmittedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveDocument(ctx context.Context, d *models.DocumentRecord) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("marshal document fields: %w", err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO application_documents (application_id, kind, reference, fields, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ApplicationID, d.Kind, d.Reference, fields, d.UploadedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert document %s: %w", d.Kind, err)
	}
	return nil
}

// FindByPrimaryID returns the filing on record for primaryID, or
// sentinel.ErrNotFound.
func (s *PostgresStore) FindByPrimaryID(ctx context.Context, primaryID string) (*models.Filing, error) {
	var f models.Filing
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT application_id, session_id FROM beneficiaries WHERE primary_id = $1`, primaryID).
		Scan(&f.ApplicationID, &f.SessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &f, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
