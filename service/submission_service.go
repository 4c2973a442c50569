package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidSubmission wraps every input problem found by Submit.
var ErrInvalidSubmission = errors.New("invalid submission")

// SubmissionStore persists submission records.
type SubmissionStore interface {
	Insert(ctx context.Context, rec *dto.SubmissionRecord) error
}

// SubmissionService validates and stores completed applications.
type SubmissionService struct {
	repo      SubmissionStore
	progress  *ProgressService
	sessions  *WizardSessions
	analytics *AnalyticsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService creates a new SubmissionService instance
func NewSubmissionService(repo SubmissionStore, progress *ProgressService, sessions *WizardSessions, analytics *AnalyticsService, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		repo:      repo,
		progress:  progress,
		sessions:  sessions,
		analytics: analytics,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit reconciles the extracted ID with the user's edits, re-runs the
// validators on the merged data, stores the record and clears the session's
// saved progress.
func (s *SubmissionService) Submit(ctx context.Context, req dto.SubmissionRequest) (*dto.SubmissionRecord, error) {
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.SessionID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	form := req.Form
	extraction := req.Extraction
	if extraction == nil {
		extraction = form.Extraction
	}
	if extraction == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, validation.Errors{"extraction": validation.ErrRequired})
	}
	form.Extraction = extraction
	for _, step := range []int{1, 2, 3} {
		if err := ValidateStep(form, step); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidSubmission, step, err)
		}
	}

	edits := make(map[string]string, len(form.ExtractEdits)+len(req.Edits))
	for k, v := range form.ExtractEdits {
		edits[k] = v
	}
	for k, v := range req.Edits {
		edits[k] = v
	}
	reconciled := ReconcileExtraction(*extraction, edits)

	check := ValidateExtractedData(&reconciled.ExtractedIDData)
	if !check.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubmission, strings.Join(check.Errors, "; "))
	}

	user := dto.StructuredName{FirstName: form.FirstName, MiddleName: form.MiddleName, LastName: form.LastName, Nickname: form.Nickname}
	cross := CrossCheck(user, form.SelectedIDType, &reconciled.ExtractedIDData)

	rec := &dto.SubmissionRecord{
		ID:            uuid.NewString(),
		SessionID:     req.SessionID,
		FirstName:     form.FirstName,
		MiddleName:    form.MiddleName,
		LastName:      form.LastName,
		Email:         form.Email,
		Phone:         form.Phone,
		Address:       joinAddress(form),
		PropertyType:  form.PropertyType,
		MonthlyBill:   form.MonthlyBill,
		IDType:        form.SelectedIDType,
		IDNumber:      reconciled.IDNumber,
		IDName:        reconciled.Name,
		IDBirthDate:   reconciled.BirthDate,
		OCRConfidence: reconciled.Confidence,
		EditedFields:  reconciled.EditedFields,
		IDTypeMatches: cross.IDType == nil || cross.IDType.Matches,
		CreatedAt:     s.now().UTC(),
	}
	if cross.Name != nil {
		rec.NameMatchScore = cross.Name.Score
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if s.sessions != nil {
		s.sessions.Close(req.SessionID)
	}
	if err := s.progress.ClearProgress(ctx, req.SessionID); err != nil {
		s.logger.Warn("submission stored but progress was not cleared",
			zap.String("session_id", req.SessionID), zap.Error(err))
	}
	s.analytics.Track(req.SessionID, EventSubmitted, map[string]any{
		"editedFields":   len(rec.EditedFields),
		"nameMatchScore": rec.NameMatchScore,
		"idTypeMatches":  rec.IDTypeMatches,
	})
	s.logger.Info("onboarding submission stored",
		zap.String("submission_id", rec.ID), zap.String("session_id", rec.SessionID))
	return rec, nil
}

func joinAddress(f dto.OnboardingForm) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{f.Address, f.City, f.Province, f.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
