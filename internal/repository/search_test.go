package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

func newTestSearchIndex(t *testing.T, status int, response string) (*SearchIndex, *capturedRequest) {
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &captured.Body)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewSearchIndex(client, "merchant-applications", logger.NewTestLogger(t)), captured
}

func TestSearchIndex_Index(t *testing.T) {
	idx, captured := newTestSearchIndex(t, http.StatusCreated, `{"result":"created"}`)
	app := createTestApplication()

	require.NoError(t, idx.Index(context.Background(), app))

	assert.Equal(t, http.MethodPut, captured.Method)
	assert.Equal(t, "/merchant-applications/_doc/"+app.ApplicationID, captured.Path)
	assert.Equal(t, "Acme Tech", captured.Body["businessName"])
	assert.Equal(t, "APPROVED", captured.Body["status"])
	assert.Equal(t, 0.9, captured.Body["averageFusionConfidence"])
	assert.Equal(t, float64(1), captured.Body["documentCount"])
}

func TestSearchIndex_IndexError(t *testing.T) {
	idx, _ := newTestSearchIndex(t, http.StatusServiceUnavailable, `{"error":"unavailable"}`)

	err := idx.Index(context.Background(), createTestApplication())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSearchIndex_Search(t *testing.T) {
	response := `{
		"took": 4,
		"hits": {
			"total": {"value": 2, "relation": "eq"},
			"hits": [
				{"_source": {"applicationId": "APP-1", "businessName": "Acme", "status": "APPROVED", "riskScore": 85, "riskLevel": "LOW"}},
				{"_source": {"applicationId": "APP-2", "businessName": "Acme East", "status": "APPROVED", "riskScore": 72, "riskLevel": "MEDIUM"}}
			]
		}
	}`
	idx, captured := newTestSearchIndex(t, http.StatusOK, response)
	minScore := 70

	result, err := idx.Search(context.Background(), SearchQuery{
		Text:         "acme",
		Statuses:     []string{"approved"},
		MinRiskScore: &minScore,
		Size:         500,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Total)
	assert.Equal(t, int64(4), result.Took)
	require.Len(t, result.Applications, 2)
	assert.Equal(t, "APP-2", result.Applications[1].ApplicationID)
	assert.Equal(t, models.RiskMedium, result.Applications[1].RiskLevel)

	assert.Equal(t, "/merchant-applications/_search", captured.Path)
	assert.Contains(t, captured.Query, "size=100")

	boolQuery := captured.Body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 2)
	terms := filters[0].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []interface{}{"APPROVED"}, terms["status"])
}

func TestSearchIndex_SearchErrors(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		idx, _ := newTestSearchIndex(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`)
		_, err := idx.Search(context.Background(), SearchQuery{})
		assert.True(t, errors.Is(err, ErrIndexNotFound))
	})

	t.Run("bad request", func(t *testing.T) {
		idx, _ := newTestSearchIndex(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`)
		_, err := idx.Search(context.Background(), SearchQuery{})
		assert.True(t, errors.Is(err, ErrSearchQueryFailed))
	})
}

func TestBuildSearchBody_MatchAllByDefault(t *testing.T) {
	body := buildSearchBody(SearchQuery{})

	must := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["must"].([]interface{})
	require.Len(t, must, 1)
	assert.Contains(t, must[0], "match_all")
}
