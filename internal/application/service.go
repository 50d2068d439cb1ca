// internal/application/service.go
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/risk"
)

var contractNextSteps = []string{
	"Review contract terms",
	"Digital signature required",
	"Account setup begins after signing",
}

// ContractNextSteps lists what the merchant does after a contract is issued.
func ContractNextSteps() []string {
	return append([]string(nil), contractNextSteps...)
}

type SubmitRequest struct {
	PersonalData          models.PersonalData            `json:"personalData"`
	BusinessData          models.BusinessData            `json:"businessData"`
	DocumentFusionReports map[string]models.FusionReport `json:"documentFusionReports"`
}

type SubmitResult struct {
	ApplicationID  string                   `json:"applicationId"`
	Status         models.ApplicationStatus `json:"status"`
	RiskScore      int                      `json:"riskScore"`
	RiskLevel      models.RiskLevel         `json:"riskLevel"`
	Terms          *models.Terms            `json:"terms,omitempty"`
	DecisionReason string                   `json:"decisionReason"`
	CreatedAt      time.Time                `json:"createdAt"`
}

type ContractResult struct {
	ContractID    string                   `json:"contractId"`
	ApplicationID string                   `json:"applicationId"`
	MerchantName  string                   `json:"merchantName"`
	Status        models.ApplicationStatus `json:"status"`
	Terms         *models.Terms            `json:"terms"`
	SignedAt      time.Time                `json:"signedAt"`
	NextSteps     []string                 `json:"nextSteps"`
}

// Service drives an application through submission, decision and contract
// issuance.
type Service struct {
	repo    Repository
	scorer  *risk.Scorer
	events  EventRecorder
	indexer Indexer
	now     func() time.Time
	logger  logger.Logger
}

type Option func(*Service)

// WithEvents records lifecycle audit events. Recording failures are logged
// and do not fail the operation.
func WithEvents(e EventRecorder) Option {
	return func(s *Service) { s.events = e }
}

// WithIndexer publishes snapshots after every write. Indexing failures are
// logged and do not fail the operation.
func WithIndexer(i Indexer) Option {
	return func(s *Service) { s.indexer = i }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, scorer *risk.Scorer, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		scorer: scorer,
		now:    time.Now,
		logger: logger.Component(log, "application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates the application and decides it in one step.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app := &models.Application{
		ApplicationID:         NewApplicationID(now),
		PersonalData:          req.PersonalData,
		BusinessData:          req.BusinessData,
		DocumentFusionReports: copyReports(req.DocumentFusionReports),
		Status:                models.StatusSubmitted,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	score := s.scorer.Score(app.BusinessData, app.DocumentFusionReports)
	if err := Decide(app, score, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to store application %s: %w", app.ApplicationID, err)
	}

	metrics.RiskScores.Observe(float64(score))
	metrics.ApplicationDecisions.WithLabelValues(string(app.Status), string(app.RiskLevel)).Inc()

	s.logger.Info("application decided", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"status":        app.Status,
		"riskScore":     app.RiskScore,
		"riskLevel":     app.RiskLevel,
		"documents":     len(app.DocumentFusionReports),
	})

	s.recordEvent(ctx, Event{
		ApplicationID: app.ApplicationID,
		Type:          EventSubmitted,
		Status:        models.StatusSubmitted,
		Details:       map[string]interface{}{"documents": len(app.DocumentFusionReports)},
		OccurredAt:    now,
	})
	s.recordEvent(ctx, Event{
		ApplicationID: app.ApplicationID,
		Type:          EventDecided,
		Status:        app.Status,
		Details: map[string]interface{}{
			"riskScore": app.RiskScore,
			"riskLevel": app.RiskLevel,
			"reason":    app.DecisionReason,
		},
		OccurredAt: now,
	})
	s.index(ctx, app)

	return &SubmitResult{
		ApplicationID:  app.ApplicationID,
		Status:         app.Status,
		RiskScore:      app.RiskScore,
		RiskLevel:      app.RiskLevel,
		Terms:          app.Terms,
		DecisionReason: app.DecisionReason,
		CreatedAt:      app.CreatedAt,
	}, nil
}

// GetStatus returns a snapshot of the application or ErrNotFound.
func (s *Service) GetStatus(ctx context.Context, id string) (*models.Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: applicationId is required", ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// IssueContract contracts an APPROVED application. Other states fail with
// ErrInvalidState and the stored record is not modified.
func (s *Service) IssueContract(ctx context.Context, id string) (*ContractResult, error) {
	current, err := s.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	next := current.Clone()
	if err := IssueContract(next, NewContractID(now), now); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next, models.StatusApproved); err != nil {
		return nil, err
	}

	metrics.ContractsIssued.Inc()
	s.logger.Info("contract issued", map[string]interface{}{
		"applicationId": next.ApplicationID,
		"contractId":    next.ContractID,
	})

	s.recordEvent(ctx, Event{
		ApplicationID: next.ApplicationID,
		Type:          EventContractIssued,
		Status:        next.Status,
		Details:       map[string]interface{}{"contractId": next.ContractID},
		OccurredAt:    now,
	})
	s.index(ctx, next)

	return &ContractResult{
		ContractID:    next.ContractID,
		ApplicationID: next.ApplicationID,
		MerchantName:  next.BusinessData.BusinessName,
		Status:        next.Status,
		Terms:         next.Terms,
		SignedAt:      *next.ContractSignedAt,
		NextSteps:     ContractNextSteps(),
	}, nil
}

func (s *Service) recordEvent(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(ctx, e); err != nil {
		s.logger.Warn("failed to record application event", map[string]interface{}{
			"applicationId": e.ApplicationID,
			"eventType":     e.Type,
			"error":         err.Error(),
		})
	}
}

func (s *Service) index(ctx context.Context, app *models.Application) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, app); err != nil {
		s.logger.Warn("failed to index application", map[string]interface{}{
			"applicationId": app.ApplicationID,
			"error":         err.Error(),
		})
	}
}

func validateSubmit(req SubmitRequest) error {
	var missing []string
	if strings.TrimSpace(req.BusinessData.BusinessName) == "" {
		missing = append(missing, "businessData.businessName")
	}
	if strings.TrimSpace(req.PersonalData.FirstName) == "" {
		missing = append(missing, "personalData.firstName")
	}
	if strings.TrimSpace(req.PersonalData.LastName) == "" {
		missing = append(missing, "personalData.lastName")
	}
	if strings.TrimSpace(req.PersonalData.Email) == "" {
		missing = append(missing, "personalData.email")
	}
	for docType := range req.DocumentFusionReports {
		if strings.TrimSpace(docType) == "" {
			missing = append(missing, "documentFusionReports key")
			break
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func copyReports(in map[string]models.FusionReport) map[string]models.FusionReport {
	out := make(map[string]models.FusionReport, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
