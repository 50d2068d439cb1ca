// internal/workers/onboarding/get-application-status/handler_test.go
package getapplicationstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"merchant-onboarding/internal/application"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func submitted(t *testing.T, svc *application.Service, business models.BusinessData) string {
	t.Helper()
	result, err := svc.Submit(context.Background(), application.SubmitRequest{
		PersonalData: models.PersonalData{FirstName: "Jane", LastName: "Doe", Email: "jane@acme.test"},
		BusinessData: business,
	})
	require.NoError(t, err)
	return result.ApplicationID
}

func newTestHandler(t *testing.T) (*Handler, *application.Service) {
	log := logger.NewTestLogger(t)
	svc := application.NewService(application.NewMemoryRepository(), risk.NewScorer(log), log,
		application.WithClock(func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }),
	)
	return NewHandler(createTestConfig(), svc, log), svc
}

func TestHandler_Execute_Approved(t *testing.T) {
	handler, svc := newTestHandler(t)
	id := submitted(t, svc, models.BusinessData{
		BusinessName:            "Acme Tech",
		Industry:                "Technology",
		AnnualRevenue:           "1200000",
		MonthlyProcessingVolume: "150000",
	})

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: id})
	require.NoError(t, err)

	assert.Equal(t, id, output.ApplicationID)
	assert.Equal(t, "Acme Tech", output.MerchantName)
	assert.Equal(t, models.StatusApproved, output.Status)
	assert.NotNil(t, output.TermsDisplay)
	assert.Equal(t, "2024-03-15T09:30:00Z", output.CreatedAt)
	assert.Equal(t, "2024-03-15T09:30:00Z", output.ProcessedAt)
	assert.Empty(t, output.ContractSignedAt)
	assert.Empty(t, output.ContractID)
}

func TestHandler_Execute_Denied(t *testing.T) {
	handler, svc := newTestHandler(t)
	id := submitted(t, svc, models.BusinessData{BusinessName: "Coins R Us", Industry: "Cryptocurrency Trading"})

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: id})
	require.NoError(t, err)

	assert.Equal(t, models.StatusDenied, output.Status)
	assert.Equal(t, models.RiskHigh, output.RiskLevel)
	assert.Nil(t, output.Terms)
	assert.Nil(t, output.TermsDisplay)
}

func TestHandler_Execute_NotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "APP-20240101-DEADBEEF"})
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, application.ErrNotFound))
}
