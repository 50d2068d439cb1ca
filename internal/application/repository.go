// internal/application/repository.go
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"merchant-onboarding/internal/models"
)

// Repository stores applications keyed by id. Update is a compare-and-set:
// it succeeds only while the stored status still equals expected, otherwise
// it returns ErrInvalidState.
type Repository interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, id string) (*models.Application, error)
	Update(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error
}

// Event is one lifecycle audit record.
type Event struct {
	ApplicationID string                   `json:"applicationId"`
	Type          string                   `json:"eventType"`
	Status        models.ApplicationStatus `json:"status"`
	Details       map[string]interface{}   `json:"details,omitempty"`
	OccurredAt    time.Time                `json:"occurredAt"`
}

const (
	EventSubmitted      = "application_submitted"
	EventDecided        = "application_decided"
	EventContractIssued = "contract_issued"
)

type EventRecorder interface {
	RecordEvent(ctx context.Context, event Event) error
}

// Indexer publishes application snapshots for back-office search.
type Indexer interface {
	Index(ctx context.Context, app *models.Application) error
}

// MemoryRepository keeps applications in process memory. Stored values are
// cloned on the way in and out.
type MemoryRepository struct {
	mu     sync.RWMutex
	apps   map[string]*models.Application
	events []Event
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{apps: make(map[string]*models.Application)}
}

func (r *MemoryRepository) Create(ctx context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[app.ApplicationID]; exists {
		return fmt.Errorf("application %s already exists", app.ApplicationID)
	}
	r.apps[app.ApplicationID] = app.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return app.Clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.apps[app.ApplicationID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, app.ApplicationID)
	}
	if current.Status != expected {
		return fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidState, app.ApplicationID, current.Status, expected)
	}
	r.apps[app.ApplicationID] = app.Clone()
	return nil
}

func (r *MemoryRepository) RecordEvent(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns the recorded events for one application in order.
func (r *MemoryRepository) Events(id string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Event
	for _, e := range r.events {
		if e.ApplicationID == id {
			out = append(out, e)
		}
	}
	return out
}
