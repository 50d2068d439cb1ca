// internal/application/statemachine.go
package application

import (
	"errors"
	"fmt"
	"time"

	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/risk"
	"merchant-onboarding/internal/terms"
)

var (
	ErrNotFound     = errors.New("APPLICATION_NOT_FOUND")
	ErrInvalidState = errors.New("INVALID_STATE_TRANSITION")
	ErrValidation   = errors.New("APPLICATION_VALIDATION_FAILED")
)

// DENIED and CONTRACTED have no outgoing edges.
var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusSubmitted: {models.StatusApproved, models.StatusDenied},
	models.StatusApproved:  {models.StatusContracted},
}

func CanTransition(from, to models.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.ApplicationStatus) bool {
	return len(transitions[s]) == 0
}

func checkTransition(app *models.Application, to models.ApplicationStatus) error {
	if IsTerminal(app.Status) {
		return fmt.Errorf("%w: %s is %s, a final state, and cannot move to %s", ErrInvalidState, app.ApplicationID, app.Status, to)
	}
	if !CanTransition(app.Status, to) {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidState, app.ApplicationID, app.Status, to)
	}
	return nil
}

// Decide applies the approval rule to a SUBMITTED application. Approved
// applications receive terms; denied ones never do.
func Decide(app *models.Application, score int, now time.Time) error {
	approved := risk.Approved(score)
	to := models.StatusDenied
	if approved {
		to = models.StatusApproved
	}
	if err := checkTransition(app, to); err != nil {
		return err
	}

	app.RiskScore = score
	app.RiskLevel = risk.Level(score)
	app.Status = to
	app.Terms = nil
	if approved {
		t := terms.Generate(app.BusinessData, score)
		app.Terms = &t
		app.DecisionReason = fmt.Sprintf("Risk score %d meets the approval threshold", score)
	} else {
		app.DecisionReason = fmt.Sprintf("Risk score %d is below the approval threshold", score)
	}
	processed := now.UTC()
	app.ProcessedAt = &processed
	app.UpdatedAt = processed
	return nil
}

// IssueContract moves an APPROVED application to CONTRACTED. Any other
// state fails with ErrInvalidState and leaves app untouched.
func IssueContract(app *models.Application, contractID string, now time.Time) error {
	if err := checkTransition(app, models.StatusContracted); err != nil {
		return err
	}

	signed := now.UTC()
	app.Status = models.StatusContracted
	app.ContractID = contractID
	app.ContractSignedAt = &signed
	app.UpdatedAt = signed
	return nil
}
