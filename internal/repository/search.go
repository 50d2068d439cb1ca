// internal/repository/search.go
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexNotFound     = errors.New("INDEX_NOT_FOUND")
)

const (
	defaultSearchSize = 20
	maxSearchSize     = 100
)

// IndexMapping is applied when the application index is created.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "applicationId":           {"type": "keyword"},
      "businessName":            {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "industry":                {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":                   {"type": "keyword"},
      "status":                  {"type": "keyword"},
      "riskScore":               {"type": "integer"},
      "riskLevel":               {"type": "keyword"},
      "averageFusionConfidence": {"type": "float"},
      "documentCount":           {"type": "integer"},
      "contractId":              {"type": "keyword"},
      "createdAt":               {"type": "date"},
      "updatedAt":               {"type": "date"}
    }
  }
}`

// ApplicationDocument is the searchable snapshot of an application.
type ApplicationDocument struct {
	ApplicationID           string                   `json:"applicationId"`
	BusinessName            string                   `json:"businessName"`
	Industry                string                   `json:"industry"`
	Email                   string                   `json:"email"`
	Status                  models.ApplicationStatus `json:"status"`
	RiskScore               int                      `json:"riskScore"`
	RiskLevel               models.RiskLevel         `json:"riskLevel"`
	AverageFusionConfidence float64                  `json:"averageFusionConfidence"`
	DocumentCount           int                      `json:"documentCount"`
	ContractID              string                   `json:"contractId,omitempty"`
	CreatedAt               time.Time                `json:"createdAt"`
	UpdatedAt               time.Time                `json:"updatedAt"`
}

func NewApplicationDocument(app *models.Application) ApplicationDocument {
	var sum float64
	for _, r := range app.DocumentFusionReports {
		sum += r.FusionConfidence
	}
	avg := 0.0
	if n := len(app.DocumentFusionReports); n > 0 {
		avg = sum / float64(n)
	}
	return ApplicationDocument{
		ApplicationID:           app.ApplicationID,
		BusinessName:            app.BusinessData.BusinessName,
		Industry:                app.BusinessData.Industry,
		Email:                   app.PersonalData.Email,
		Status:                  app.Status,
		RiskScore:               app.RiskScore,
		RiskLevel:               app.RiskLevel,
		AverageFusionConfidence: avg,
		DocumentCount:           len(app.DocumentFusionReports),
		ContractID:              app.ContractID,
		CreatedAt:               app.CreatedAt,
		UpdatedAt:               app.UpdatedAt,
	}
}

type SearchQuery struct {
	Text         string   `json:"text,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
	RiskLevels   []string `json:"riskLevels,omitempty"`
	MinRiskScore *int     `json:"minRiskScore,omitempty"`
	MaxRiskScore *int     `json:"maxRiskScore,omitempty"`
	From         int      `json:"from,omitempty"`
	Size         int      `json:"size,omitempty"`
}

type SearchResult struct {
	Total        int64                 `json:"total"`
	Applications []ApplicationDocument `json:"applications"`
	Took         int64                 `json:"took"`
}

// SearchIndex keeps application snapshots in Elasticsearch for back-office
// queries. It is never the source of truth.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchIndex(client *elasticsearch.Client, index string, log logger.Logger) *SearchIndex {
	return &SearchIndex{
		client: client,
		index:  index,
		logger: logger.Component(log, "application-search"),
	}
}

func (s *SearchIndex) Index(ctx context.Context, app *models.Application) error {
	body, err := json.Marshal(NewApplicationDocument(app))
	if err != nil {
		return fmt.Errorf("encode application %s: %w", app.ApplicationID, err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: app.ApplicationID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index application %s: %w", app.ApplicationID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index application %s: %s", app.ApplicationID, res.Status())
	}
	return nil
}

func (s *SearchIndex) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	size := q.Size
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	from := q.From
	if from < 0 {
		from = 0
	}

	body, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.String())
	}

	var parsed struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ApplicationDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	out := &SearchResult{
		Total:        parsed.Hits.Total.Value,
		Took:         parsed.Took,
		Applications: make([]ApplicationDocument, 0, len(parsed.Hits.Hits)),
	}
	for _, h := range parsed.Hits.Hits {
		out.Applications = append(out.Applications, h.Source)
	}
	return out, nil
}

func buildSearchBody(q SearchQuery) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"businessName^3", "industry", "applicationId", "email"},
			},
		})
	}
	if len(q.Statuses) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"status": upper(q.Statuses)}})
	}
	if len(q.RiskLevels) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"riskLevel": upper(q.RiskLevels)}})
	}
	if q.MinRiskScore != nil || q.MaxRiskScore != nil {
		rng := map[string]interface{}{}
		if q.MinRiskScore != nil {
			rng["gte"] = *q.MinRiskScore
		}
		if q.MaxRiskScore != nil {
			rng["lte"] = *q.MaxRiskScore
		}
		filter = append(filter, map[string]interface{}{"range": map[string]interface{}{"riskScore": rng}})
	}

	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}
}

func upper(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}
