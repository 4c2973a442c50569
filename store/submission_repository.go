package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/lib/pq"
)

const createSubmissionsSQL = `
CREATE TABLE IF NOT EXISTS onboarding_submissions (
	id               UUID PRIMARY KEY,
	session_id       TEXT NOT NULL UNIQUE,
	first_name       TEXT NOT NULL,
	middle_name      TEXT NOT NULL DEFAULT '',
	last_name        TEXT NOT NULL,
	email            TEXT NOT NULL,
	phone            TEXT NOT NULL,
	address          TEXT NOT NULL,
	property_type    TEXT NOT NULL,
	monthly_bill     TEXT NOT NULL,
	id_type          TEXT NOT NULL,
	id_number        TEXT NOT NULL,
	id_name          TEXT NOT NULL,
	id_birth_date    TEXT NOT NULL DEFAULT '',
	ocr_confidence   INTEGER NOT NULL,
	edited_fields    TEXT[] NOT NULL DEFAULT '{}',
	name_match_score INTEGER NOT NULL,
	id_type_matches  BOOLEAN NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
)`

const insertSubmissionSQL = `
INSERT INTO onboarding_submissions (
	id, session_id, first_name, middle_name, last_name, email, phone, address,
	property_type, monthly_bill, id_type, id_number, id_name, id_birth_date,
	ocr_confidence, edited_fields, name_match_score, id_type_matches, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

// ErrDuplicateSubmission is returned when the session was already submitted.
var ErrDuplicateSubmission = errors.New("submission already exists")

// SubmissionRepository persists completed onboarding submissions to Postgres.
type SubmissionRepository struct {
	db *sql.DB
}

// OpenPostgres opens a lib/pq connection pool.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// NewSubmissionRepository creates a new SubmissionRepository instance
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// EnsureSchema creates the submissions table when it does not exist.
func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSubmissionsSQL); err != nil {
		return fmt.Errorf("failed to create submissions table: %w", err)
	}
	return nil
}

// Insert stores rec. A second record for the same session returns ErrDuplicateSubmission.
func (r *SubmissionRepository) Insert(ctx context.Context, rec *dto.SubmissionRecord) error {
	_, err := r.db.ExecContext(ctx, insertSubmissionSQL,
		rec.ID,
		rec.SessionID,
		rec.FirstName,
		rec.MiddleName,
		rec.LastName,
		rec.Email,
		rec.Phone,
		rec.Address,
		rec.PropertyType,
		rec.MonthlyBill,
		rec.IDType,
		rec.IDNumber,
		rec.IDName,
		rec.IDBirthDate,
		rec.OCRConfidence,
		pq.Array(rec.EditedFields),
		rec.NameMatchScore,
		rec.IDTypeMatches,
		rec.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: session %s", ErrDuplicateSubmission, rec.SessionID)
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
