package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubmission() *dto.SubmissionRecord {
	return &dto.SubmissionRecord{
		ID:             "5b0f7d1e-0000-4000-8000-000000000001",
		SessionID:      "sess-1",
		FirstName:      "Juan",
		LastName:       "Dela Cruz",
		Email:          "juan@example.com",
		IDType:         "drivers_license",
		IDNumber:       "N01-23-456789",
		EditedFields:   []string{"idNumber"},
		NameMatchScore: 96,
		IDTypeMatches:  true,
		CreatedAt:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSubmissionRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := testSubmission()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO onboarding_submissions")).
		WithArgs(rec.ID, rec.SessionID, "Juan", "", "Dela Cruz", "juan@example.com", "", "", "", "",
			"drivers_license", "N01-23-456789", "", "", 0, sqlmock.AnyArg(), 96, true, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSubmissionRepository(db).Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO onboarding_submissions").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err = NewSubmissionRepository(db).Insert(context.Background(), testSubmission())
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
}

func TestSubmissionRepository_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO onboarding_submissions").WillReturnError(errors.New("connection reset"))

	err = NewSubmissionRepository(db).Insert(context.Background(), testSubmission())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateSubmission)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSubmissionRepository_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS onboarding_submissions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewSubmissionRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
