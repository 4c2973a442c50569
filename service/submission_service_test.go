package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/store"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubmissionStore struct {
	records []*dto.SubmissionRecord
	err     error
}

func (f *fakeSubmissionStore) Insert(ctx context.Context, rec *dto.SubmissionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func completeForm() dto.OnboardingForm {
	return dto.OnboardingForm{
		FirstName: "Juan", MiddleName: "Santos", LastName: "Dela Cruz",
		Email: "juan@example.com", Phone: "09171234567",
		Address: "123 Rizal St", City: "Quezon City", Province: "Metro Manila", PostalCode: "1100",
		PropertyType: "residential", MonthlyBill: "4500",
		SelectedIDType: idtype.DriversLicense,
		Password:       "supersecret", ConfirmPassword: "supersecret",
	}
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	progress := NewProgressService(kv, DefaultProgressOptions(), zap.NewNop())
	repo := &fakeSubmissionStore{}
	svc := NewSubmissionService(repo, progress, nil, NewAnalyticsService(0, zap.NewNop()), zap.NewNop())

	_, err := progress.SaveOnboardingProgress(ctx, "s1", dto.ProgressSnapshot{FormData: map[string]any{"a": 1}, CurrentStep: 5})
	require.NoError(t, err)

	rec, err := svc.Submit(ctx, dto.SubmissionRequest{
		SessionID: "s1",
		Form:      completeForm(),
		Extraction: &dto.ExtractedIDData{
			Name: "DELA CRUZ, JUAN SANTOS", IDNumber: "N01-23-45678", IDType: "Driver's License", Confidence: 74,
		},
		Edits: map[string]string{FieldIDNumber: "N01-23-456789"},
	})
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	assert.Equal(t, rec, repo.records[0])
	assert.Len(t, rec.ID, 36)
	assert.Equal(t, "N01-23-456789", rec.IDNumber)
	assert.Equal(t, []string{FieldIDNumber}, rec.EditedFields)
	assert.Equal(t, 100, rec.NameMatchScore)
	assert.True(t, rec.IDTypeMatches)
	assert.Equal(t, "123 Rizal St, Quezon City, Metro Manila, 1100", rec.Address)

	p, err := progress.LoadOnboardingProgress(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, p, "progress is cleared after submission")
}

func TestSubmissionService_Invalid(t *testing.T) {
	progress := NewProgressService(store.NewMemoryStore(), DefaultProgressOptions(), zap.NewNop())
	repo := &fakeSubmissionStore{}
	svc := NewSubmissionService(repo, progress, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), dto.SubmissionRequest{Form: completeForm()})
	assert.ErrorIs(t, err, ErrInvalidSubmission)

	_, err = svc.Submit(context.Background(), dto.SubmissionRequest{SessionID: "s1", Form: completeForm()})
	assert.ErrorIs(t, err, ErrInvalidSubmission)

	form := completeForm()
	form.Email = ""
	_, err = svc.Submit(context.Background(), dto.SubmissionRequest{
		SessionID: "s1", Form: form, Extraction: &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN", IDNumber: "N01-23-456789"},
	})
	assert.ErrorIs(t, err, ErrInvalidSubmission)

	_, err = svc.Submit(context.Background(), dto.SubmissionRequest{
		SessionID: "s1", Form: completeForm(), Extraction: &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN"},
	})
	assert.ErrorIs(t, err, ErrInvalidSubmission, "ID number is still required after edits")
	assert.Empty(t, repo.records)
}

func TestSubmissionService_StoreFailure(t *testing.T) {
	progress := NewProgressService(store.NewMemoryStore(), DefaultProgressOptions(), zap.NewNop())
	svc := NewSubmissionService(&fakeSubmissionStore{err: errors.New("db down")}, progress, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), dto.SubmissionRequest{
		SessionID: "s1", Form: completeForm(),
		Extraction: &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN", IDNumber: "N01-23-456789", Confidence: 80},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSubmission)
}
