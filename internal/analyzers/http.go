// internal/analyzers/http.go
package analyzers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"merchant-onboarding/internal/common/config"
	commonhttp "merchant-onboarding/internal/common/http"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/resilience"
)

const (
	textAnalyzePath    = "/v1/documents:analyze"
	visionAnnotatePath = "/v1/images:annotate"
	entityAnalyzePath  = "/v1/entities:analyze"
)

// ErrAnalyzerUnavailable wraps every transport, status or breaker failure.
var ErrAnalyzerUnavailable = errors.New("ANALYZER_UNAVAILABLE")

type documentRequest struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

type entityRequest struct {
	Text string `json:"text"`
}

// service bundles the transport and guard shared by the three clients.
type service struct {
	name   string
	client *commonhttp.Client
	guard  *resilience.Guard
	logger logger.Logger
}

func newService(name string, ep config.AnalyzerEndpoint, breaker config.BreakerConfig, log logger.Logger) service {
	log = logger.Component(log, "analyzer").WithFields(map[string]interface{}{"analyzer": name})
	return service{
		name:   name,
		client: commonhttp.NewClient(ep.BaseURL, ep.APIKey, config.GetDuration(ep.Timeout)),
		guard: resilience.NewGuard(name, resilience.Config{
			RateLimit:               ep.RateLimit,
			Burst:                   ep.Burst,
			BreakerEnabled:          breaker.Enabled,
			BreakerMinRequests:      breaker.MinRequests,
			BreakerFailureRatio:     breaker.FailureRatio,
			BreakerOpenTimeout:      config.GetDuration(breaker.OpenTimeout),
			BreakerHalfOpenMaxCalls: breaker.HalfOpenMaxCall,
			IsFailure:               countsAgainstBreaker,
		}, log),
		logger: log,
	}
}

func (s service) post(ctx context.Context, path string, body, out interface{}) error {
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return s.client.PostJSON(ctx, path, body, out)
	})
	if resilience.IsCircuitOpen(err) {
		s.logger.Warn("analyzer call skipped", map[string]interface{}{
			"path":         path,
			"circuitState": s.guard.State(),
		})
		return fmt.Errorf("%w: %s: call skipped: %v", ErrAnalyzerUnavailable, s.name, err)
	}
	if err != nil {
		s.logger.Debug("analyzer call failed", map[string]interface{}{
			"path":         path,
			"error":        err.Error(),
			"circuitState": s.guard.State(),
		})
		return fmt.Errorf("%w: %s: %v", ErrAnalyzerUnavailable, s.name, err)
	}
	return nil
}

// countsAgainstBreaker ignores client-side 4xx responses.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

// ==========================
// Text / structure analyzer
// ==========================

type TextClient struct{ service }

func NewTextClient(ep config.AnalyzerEndpoint, breaker config.BreakerConfig, log logger.Logger) *TextClient {
	return &TextClient{newService("text", ep, breaker, log)}
}

func (c *TextClient) AnalyzeDocument(ctx context.Context, content []byte, mimeType string) (*TextAnalysis, error) {
	var out TextAnalysis
	req := documentRequest{Content: base64.StdEncoding.EncodeToString(content), MimeType: mimeType}
	if err := c.post(ctx, textAnalyzePath, req, &out); err != nil {
		return nil, err
	}
	out.Text = truncate(out.Text, MaxExtractedTextChars)
	return &out, nil
}

// ==========================
// Visual authenticity analyzer
// ==========================

type VisionClient struct{ service }

func NewVisionClient(ep config.AnalyzerEndpoint, breaker config.BreakerConfig, log logger.Logger) *VisionClient {
	return &VisionClient{newService("vision", ep, breaker, log)}
}

func (c *VisionClient) AnalyzeImage(ctx context.Context, content []byte) (*VisionAnalysis, error) {
	var out VisionAnalysis
	req := documentRequest{Content: base64.StdEncoding.EncodeToString(content)}
	if err := c.post(ctx, visionAnnotatePath, req, &out); err != nil {
		return nil, err
	}
	out.TextContent = truncate(out.TextContent, MaxVisionTextChars)
	return &out, nil
}

// ==========================
// Entity / language analyzer
// ==========================

type EntityClient struct{ service }

func NewEntityClient(ep config.AnalyzerEndpoint, breaker config.BreakerConfig, log logger.Logger) *EntityClient {
	return &EntityClient{newService("nlp", ep, breaker, log)}
}

func (c *EntityClient) AnalyzeEntities(ctx context.Context, text string) (*NLPAnalysis, error) {
	var out NLPAnalysis
	if err := c.post(ctx, entityAnalyzePath, entityRequest{Text: truncate(text, MaxNLPInputChars)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
