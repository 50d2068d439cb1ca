// internal/workers/onboarding/search-applications/handler_test.go
package searchapplications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, IndexName: "merchant-applications"}
}

func newTestHandler(t *testing.T, status int, response string) (*Handler, *map[string]interface{}) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	index := repository.NewSearchIndex(client, "merchant-applications", log)
	return NewHandler(createTestConfig(), index, log), &body
}

const twoHits = `{
	"took": 4,
	"hits": {
		"total": {"value": 2},
		"hits": [
			{"_source": {"applicationId": "APP-20240315-0000000A", "businessName": "Acme Tech", "status": "APPROVED", "riskScore": 100, "riskLevel": "LOW"}},
			{"_source": {"applicationId": "APP-20240315-0000000B", "businessName": "Acme Foods", "status": "APPROVED", "riskScore": 72, "riskLevel": "MEDIUM"}}
		]
	}
}`

type stubSearcher struct {
	calls int
}

func (s *stubSearcher) Search(context.Context, repository.SearchQuery) (*repository.SearchResult, error) {
	s.calls++
	return &repository.SearchResult{}, nil
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ReturnsHits(t *testing.T) {
	handler, body := newTestHandler(t, http.StatusOK, twoHits)

	output, err := handler.Execute(context.Background(), &Input{Text: "acme", Statuses: []string{"APPROVED"}})
	require.NoError(t, err)

	assert.Equal(t, int64(2), output.Total)
	assert.Equal(t, int64(4), output.Took)
	require.Len(t, output.Applications, 2)
	assert.Equal(t, "Acme Tech", output.Applications[0].BusinessName)
	assert.Equal(t, models.RiskMedium, output.Applications[1].RiskLevel)
	assert.NotNil(t, (*body)["query"])
}

func TestHandler_Execute_InvalidRange(t *testing.T) {
	stub := &stubSearcher{}
	handler := NewHandler(createTestConfig(), stub, logger.NewTestLogger(t))

	lo, hi := 80, 20
	_, err := handler.Execute(context.Background(), &Input{MinRiskScore: &lo, MaxRiskScore: &hi})
	assert.True(t, errors.Is(err, ErrInvalidRange))
	assert.Equal(t, 0, stub.calls)
	assert.Equal(t, apperrors.ErrCodeApplicationValidationFailed, apperrors.Normalize(handler.classify(err)).Code)
}

func TestHandler_Execute_IndexMissing(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`)

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)

	classified := apperrors.Normalize(handler.classify(err))
	assert.Equal(t, apperrors.ErrCodeIndexNotFound, classified.Code)
	assert.False(t, classified.Retryable)
}

func TestHandler_Execute_ClusterError(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusInternalServerError, `{"error":"boom"}`)

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)

	classified := apperrors.Normalize(handler.classify(err))
	assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, classified.Code)
	assert.True(t, classified.Retryable)
}
