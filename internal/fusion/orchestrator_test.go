package fusion

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/analyzers"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

type fakeText struct {
	out *analyzers.TextAnalysis
	err error
}

func (f *fakeText) AnalyzeDocument(ctx context.Context, content []byte, mimeType string) (*analyzers.TextAnalysis, error) {
	return f.out, f.err
}

type fakeVision struct {
	out   *analyzers.VisionAnalysis
	err   error
	panic bool
}

func (f *fakeVision) AnalyzeImage(ctx context.Context, content []byte) (*analyzers.VisionAnalysis, error) {
	if f.panic {
		panic("vision client crashed")
	}
	return f.out, f.err
}

type fakeNLP struct {
	calls   int32
	gotText string
	ctxErr  error
	out     *analyzers.NLPAnalysis
	err     error
}

func (f *fakeNLP) AnalyzeEntities(ctx context.Context, text string) (*analyzers.NLPAnalysis, error) {
	atomic.AddInt32(&f.calls, 1)
	f.gotText = text
	f.ctxErr = ctx.Err()
	return f.out, f.err
}

func goodText() *fakeText {
	return &fakeText{out: &analyzers.TextAnalysis{
		Text:       "ACME TRADING LLC - Business License No. 55-1234, Springfield",
		Confidence: 0.92,
		Entities: []analyzers.TextEntity{
			{Type: "organization", Text: "ACME TRADING LLC", Confidence: 0.9},
			{Type: "license_number", Text: "55-1234", Confidence: 0.8},
		},
		FormFields: map[string]string{"license_no": "55-1234"},
	}}
}

func goodVision() *fakeVision {
	return &fakeVision{out: &analyzers.VisionAnalysis{
		TextDetected:    true,
		TextContent:     "ACME TRADING LLC",
		ObjectsDetected: 1,
		LogosDetected:   1,
	}}
}

func goodNLP() *fakeNLP {
	return &fakeNLP{out: &analyzers.NLPAnalysis{Entities: []analyzers.NLPEntity{
		{Name: "ACME TRADING LLC", Type: "ORGANIZATION", Salience: 0.7},
		{Name: "Springfield", Type: "LOCATION", Salience: 0.2},
	}}}
}

func newTestOrchestrator(t *testing.T, text analyzers.TextAnalyzer, vision analyzers.VisionAnalyzer, nlp analyzers.EntityAnalyzer) *Orchestrator {
	log := logger.NewTestLogger(t)
	return NewOrchestrator(text, vision, nlp, NewRunner(8, log), log)
}

func TestAnalyze_AllAnalyzersSucceed(t *testing.T) {
	nlp := goodNLP()
	o := newTestOrchestrator(t, goodText(), goodVision(), nlp)

	results := o.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")

	text := models.Succeeded(results.Text)
	require.NotNil(t, text)
	assert.Equal(t, 0.92, text.Confidence)
	require.Len(t, text.Entities, 2)
	assert.Equal(t, models.EntityOrganization, text.Entities[0].Type)
	assert.Equal(t, models.EntityOther, text.Entities[1].Type)
	assert.Equal(t, "55-1234", text.StructuredFields["license_no"])

	vision := models.Succeeded(results.Vision)
	require.NotNil(t, vision)
	assert.Equal(t, 0.9, vision.Confidence)
	require.NotNil(t, vision.Visual)
	assert.True(t, vision.Visual.TextDetected)

	entities := models.Succeeded(results.NLP)
	require.NotNil(t, entities)
	assert.Len(t, entities.Entities, 2)
	assert.Equal(t, int32(1), nlp.calls)
	assert.Equal(t, goodText().out.Text, nlp.gotText)

	report := results.Report(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ActionAutoApprove, report.RecommendedAction)
	assert.Equal(t, 1.0, report.ValidationScore)
	assert.False(t, report.AnalyzedAt.IsZero())
}

func TestAnalyze_IsolatesAnalyzerFailures(t *testing.T) {
	nlp := goodNLP()
	o := newTestOrchestrator(t,
		goodText(),
		&fakeVision{err: errors.New("ANALYZER_UNAVAILABLE: vision: status 503")},
		nlp,
	)

	results := o.Analyze(context.Background(), []byte("img"), "image/png")

	require.NotNil(t, models.Succeeded(results.Text))
	failure, ok := results.Vision.(*models.AnalyzerFailure)
	require.True(t, ok)
	assert.Contains(t, failure.Reason, "503")
	require.NotNil(t, models.Succeeded(results.NLP))

	report := results.Report(time.Now())
	assert.Equal(t, 0.0, report.VisionAuthenticityScore)
	assert.False(t, report.ValidationChecks[models.CheckVisualIntegrity])
}

func TestAnalyze_RecoversAnalyzerPanic(t *testing.T) {
	o := newTestOrchestrator(t, goodText(), &fakeVision{panic: true}, goodNLP())

	results := o.Analyze(context.Background(), []byte("img"), "image/png")

	failure, ok := results.Vision.(*models.AnalyzerFailure)
	require.True(t, ok)
	assert.Contains(t, failure.Reason, "vision client crashed")
	assert.NotNil(t, models.Succeeded(results.Text))
}

func TestAnalyze_SkipsNLPForShortText(t *testing.T) {
	tests := []struct {
		name string
		text *fakeText
	}{
		{"text analyzer failed", &fakeText{err: errors.New("timeout")}},
		{"empty text", &fakeText{out: &analyzers.TextAnalysis{Confidence: 0.4}}},
		{"nine characters", &fakeText{out: &analyzers.TextAnalysis{Text: "  123456789  ", Confidence: 0.4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nlp := goodNLP()
			o := newTestOrchestrator(t, tt.text, goodVision(), nlp)

			results := o.Analyze(context.Background(), []byte("x"), "application/pdf")

			assert.Equal(t, int32(0), nlp.calls)
			skipped := models.Succeeded(results.NLP)
			require.NotNil(t, skipped)
			assert.Empty(t, skipped.Entities)

			report := results.Report(time.Now())
			assert.Equal(t, 0, report.NLPEntityCount)
			assert.Empty(t, report.RiskKeywordsFound)
		})
	}
}

func TestAnalyze_NLPFailureIsIsolated(t *testing.T) {
	o := newTestOrchestrator(t, goodText(), goodVision(), &fakeNLP{err: errors.New("quota exceeded")})

	results := o.Analyze(context.Background(), []byte("x"), "application/pdf")

	_, ok := results.NLP.(*models.AnalyzerFailure)
	assert.True(t, ok)
	assert.NotNil(t, models.Succeeded(results.Text))
	assert.NotNil(t, models.Succeeded(results.Vision))
}

func TestAnalyze_AllAnalyzersFail(t *testing.T) {
	o := newTestOrchestrator(t,
		&fakeText{err: errors.New("down")},
		&fakeVision{err: errors.New("down")},
		goodNLP(),
	)

	report := o.Analyze(context.Background(), []byte("x"), "application/pdf").Report(time.Now())

	assert.Equal(t, models.ActionReject, report.RecommendedAction)
	assert.Less(t, report.FusionConfidence, 0.6)
}

func TestAnalyze_IgnoresCallerCancellation(t *testing.T) {
	nlp := goodNLP()
	o := newTestOrchestrator(t, goodText(), goodVision(), nlp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.Analyze(ctx, []byte("x"), "application/pdf")

	assert.NotNil(t, models.Succeeded(results.NLP))
	assert.NoError(t, nlp.ctxErr)
}

func TestAnalyze_SequentialFallbackStillReturnsBothResults(t *testing.T) {
	log := logger.NewTestLogger(t)
	runner := NewRunner(2, log)
	require.True(t, runner.slots.TryAcquire(2))
	defer runner.slots.Release(2)

	o := NewOrchestrator(goodText(), goodVision(), goodNLP(), runner, log)

	results := o.Analyze(context.Background(), []byte("x"), "application/pdf")

	assert.NotNil(t, models.Succeeded(results.Text))
	assert.NotNil(t, models.Succeeded(results.Vision))
	assert.True(t, strings.HasPrefix(models.Succeeded(results.Text).ExtractedText, "ACME"))
}
