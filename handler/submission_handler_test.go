package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/Aashish23092/solar-id-intake/store"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySubmissions struct {
	bySession map[string]*dto.SubmissionRecord
}

func (m *memorySubmissions) Insert(ctx context.Context, rec *dto.SubmissionRecord) error {
	if _, ok := m.bySession[rec.SessionID]; ok {
		return fmt.Errorf("%w: session %s", store.ErrDuplicateSubmission, rec.SessionID)
	}
	m.bySession[rec.SessionID] = rec
	return nil
}

func newSubmissionRouter(svc *service.SubmissionService) *gin.Engine {
	h := NewSubmissionHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/submissions", h.Submit)
	return r
}

func validSubmission(sessionID string) dto.SubmissionRequest {
	return dto.SubmissionRequest{
		SessionID: sessionID,
		Form: dto.OnboardingForm{
			FirstName: "Juan", MiddleName: "Santos", LastName: "Dela Cruz",
			Email: "juan@example.com", Phone: "09171234567",
			Address: "123 Rizal St", City: "Quezon City", Province: "Metro Manila", PostalCode: "1100",
			PropertyType: "residential", MonthlyBill: "4500",
			SelectedIDType: idtype.DriversLicense,
		},
		Extraction: licenseData(),
	}
}

func TestSubmit(t *testing.T) {
	repo := &memorySubmissions{bySession: map[string]*dto.SubmissionRecord{}}
	progress := service.NewProgressService(store.NewMemoryStore(), service.DefaultProgressOptions(), zap.NewNop())
	svc := service.NewSubmissionService(repo, progress, nil, service.NewAnalyticsService(0, zap.NewNop()), zap.NewNop())
	r := newSubmissionRouter(svc)

	rec := serve(r, jsonRequest(t, http.MethodPost, "/submissions", validSubmission("sess-9")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var stored dto.SubmissionRecord
	decode(t, rec, &stored)
	assert.Equal(t, "sess-9", stored.SessionID)
	assert.Equal(t, "N01-23-456789", stored.IDNumber)
	assert.Equal(t, []string{}, stored.EditedFields)

	rec = serve(r, jsonRequest(t, http.MethodPost, "/submissions", validSubmission("sess-9")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	bad := validSubmission("sess-10")
	bad.Form.Email = "nope"
	rec = serve(r, jsonRequest(t, http.MethodPost, "/submissions", bad))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_Disabled(t *testing.T) {
	r := newSubmissionRouter(nil)
	rec := serve(r, jsonRequest(t, http.MethodPost, "/submissions", validSubmission("s")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
