// internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"merchant-onboarding/internal/application"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrDatabaseQueryFailed  = errors.New("DATABASE_QUERY_FAILED")
)

const uniqueViolation = "23505"

const (
	insertApplicationSQL = `
		INSERT INTO merchant_applications (
			application_id, personal_data, business_data, fusion_reports,
			risk_score, risk_level, status, decision_reason, terms, contract_id,
			created_at, updated_at, processed_at, contract_signed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	selectApplicationSQL = `
		SELECT application_id, personal_data, business_data, fusion_reports,
			risk_score, risk_level, status, decision_reason, terms, contract_id,
			created_at, updated_at, processed_at, contract_signed_at
		FROM merchant_applications
		WHERE application_id = $1`

	updateApplicationSQL = `
		UPDATE merchant_applications SET
			fusion_reports = $2, risk_score = $3, risk_level = $4, status = $5,
			decision_reason = $6, terms = $7, contract_id = $8,
			updated_at = $9, processed_at = $10, contract_signed_at = $11
		WHERE application_id = $1 AND status = $12`

	existsApplicationSQL = `SELECT EXISTS(SELECT 1 FROM merchant_applications WHERE application_id = $1)`

	insertEventSQL = `
		INSERT INTO application_events (application_id, event_type, status, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

// Postgres stores applications in merchant_applications. Nested documents
// are JSONB columns.
type Postgres struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgres(db *sql.DB, log logger.Logger) *Postgres {
	return &Postgres{db: db, logger: logger.Component(log, "postgres-repository")}
}

func (p *Postgres) Create(ctx context.Context, app *models.Application) error {
	row, err := toRow(app)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrDatabaseInsertFailed, app.ApplicationID, err)
	}

	_, err = p.db.ExecContext(ctx, insertApplicationSQL,
		app.ApplicationID, row.personal, row.business, row.reports,
		app.RiskScore, string(app.RiskLevel), string(app.Status), nullString(app.DecisionReason),
		row.terms, nullString(app.ContractID),
		app.CreatedAt, app.UpdatedAt, nullTime(app.ProcessedAt), nullTime(app.ContractSignedAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: application %s already exists", ErrDatabaseInsertFailed, app.ApplicationID)
		}
		return fmt.Errorf("%w: %w", ErrDatabaseInsertFailed, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.Application, error) {
	var (
		app                           models.Application
		personal, business, reports   []byte
		terms                         []byte
		riskLevel, status             string
		decisionReason, contractID    sql.NullString
		processedAt, contractSignedAt sql.NullTime
	)

	err := p.db.QueryRowContext(ctx, selectApplicationSQL, id).Scan(
		&app.ApplicationID, &personal, &business, &reports,
		&app.RiskScore, &riskLevel, &status, &decisionReason, &terms, &contractID,
		&app.CreatedAt, &app.UpdatedAt, &processedAt, &contractSignedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", application.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseQueryFailed, err)
	}

	if err := json.Unmarshal(personal, &app.PersonalData); err != nil {
		return nil, fmt.Errorf("%w: decode personal_data: %v", ErrDatabaseQueryFailed, err)
	}
	if err := json.Unmarshal(business, &app.BusinessData); err != nil {
		return nil, fmt.Errorf("%w: decode business_data: %v", ErrDatabaseQueryFailed, err)
	}
	app.DocumentFusionReports = map[string]models.FusionReport{}
	if len(reports) > 0 {
		if err := json.Unmarshal(reports, &app.DocumentFusionReports); err != nil {
			return nil, fmt.Errorf("%w: decode fusion_reports: %v", ErrDatabaseQueryFailed, err)
		}
	}
	if len(terms) > 0 {
		var t models.Terms
		if err := json.Unmarshal(terms, &t); err != nil {
			return nil, fmt.Errorf("%w: decode terms: %v", ErrDatabaseQueryFailed, err)
		}
		app.Terms = &t
	}

	app.RiskLevel = models.RiskLevel(riskLevel)
	app.Status = models.ApplicationStatus(status)
	app.DecisionReason = decisionReason.String
	app.ContractID = contractID.String
	if processedAt.Valid {
		t := processedAt.Time
		app.ProcessedAt = &t
	}
	if contractSignedAt.Valid {
		t := contractSignedAt.Time
		app.ContractSignedAt = &t
	}
	return &app, nil
}

// Update writes app only while the stored status equals expected.
func (p *Postgres) Update(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	row, err := toRow(app)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrDatabaseQueryFailed, app.ApplicationID, err)
	}

	res, err := p.db.ExecContext(ctx, updateApplicationSQL,
		app.ApplicationID, row.reports, app.RiskScore, string(app.RiskLevel), string(app.Status),
		nullString(app.DecisionReason), row.terms, nullString(app.ContractID),
		app.UpdatedAt, nullTime(app.ProcessedAt), nullTime(app.ContractSignedAt),
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseQueryFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseQueryFailed, err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := p.db.QueryRowContext(ctx, existsApplicationSQL, app.ApplicationID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseQueryFailed, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", application.ErrNotFound, app.ApplicationID)
	}
	return fmt.Errorf("%w: %s is no longer %s", application.ErrInvalidState, app.ApplicationID, expected)
}

func (p *Postgres) RecordEvent(ctx context.Context, event application.Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("%w: encode event details: %v", ErrDatabaseInsertFailed, err)
	}
	if event.Details == nil {
		details = []byte("{}")
	}

	if _, err := p.db.ExecContext(ctx, insertEventSQL,
		event.ApplicationID, event.Type, string(event.Status), details, event.OccurredAt,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseInsertFailed, err)
	}
	return nil
}

type applicationRow struct {
	personal, business, reports []byte
	terms                       interface{}
}

func toRow(app *models.Application) (applicationRow, error) {
	var row applicationRow
	var err error

	if row.personal, err = json.Marshal(app.PersonalData); err != nil {
		return row, err
	}
	if row.business, err = json.Marshal(app.BusinessData); err != nil {
		return row, err
	}
	reports := app.DocumentFusionReports
	if reports == nil {
		reports = map[string]models.FusionReport{}
	}
	if row.reports, err = json.Marshal(reports); err != nil {
		return row, err
	}
	if app.Terms != nil {
		b, err := json.Marshal(app.Terms)
		if err != nil {
			return row, err
		}
		row.terms = b
	}
	return row, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
