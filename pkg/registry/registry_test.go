// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:          "submit-application",
				DisplayName: "Submit Application",
				Category:    "onboarding",
				TaskType:    "submit-application",
				InputSchema: "submit-application",
				Timeout:     "30s",
				Retries:     3,
			},
			{
				ID:          "issue-contract",
				DisplayName: "Issue Contract",
				Category:    "onboarding",
				TaskType:    "issue-contract",
				Timeout:     "30s",
				Retries:     3,
			},
		},
	}
}

func TestRegistry_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	reg := createTestRegistry()

	require.NoError(t, Save(reg, path, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T10:00:00Z", loaded.LastUpdated)
	assert.Equal(t, reg.Activities, loaded.Activities)
}

func TestRegistry_LoadMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRegistry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ActivityRegistry)
		wantErr string
	}{
		{"valid", func(*ActivityRegistry) {}, ""},
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }, "no activities"},
		{"duplicate id", func(r *ActivityRegistry) { r.Activities[1].ID = "submit-application" }, "duplicate activity ID"},
		{"duplicate task type", func(r *ActivityRegistry) { r.Activities[1].TaskType = "submit-application" }, "registered twice"},
		{"missing display name", func(r *ActivityRegistry) { r.Activities[0].DisplayName = "" }, "DisplayName"},
		{"bad timeout", func(r *ActivityRegistry) { r.Activities[0].Timeout = "soon" }, "invalid timeout"},
		{"negative retries", func(r *ActivityRegistry) { r.Activities[0].Retries = -1 }, "negative retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := createTestRegistry()
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_Update(t *testing.T) {
	reg := createTestRegistry()

	require.NoError(t, reg.Update("issue-contract", "retries", "5"))
	require.NoError(t, reg.Update("issue-contract", "timeout", "45s"))

	a, ok := reg.Find("issue-contract")
	require.True(t, ok)
	assert.Equal(t, 5, a.Retries)
	assert.Equal(t, "45s", a.Timeout)

	assert.Error(t, reg.Update("issue-contract", "retries", "many"))
	assert.Error(t, reg.Update("issue-contract", "colour", "blue"))
	assert.Error(t, reg.Update("unknown", "version", "2.0.0"))
}

func TestRegistry_Diff(t *testing.T) {
	reg := createTestRegistry()

	unconfigured, unregistered := reg.Diff([]string{"submit-application", "search-applications"})
	assert.Equal(t, []string{"issue-contract"}, unconfigured)
	assert.Equal(t, []string{"search-applications"}, unregistered)

	unconfigured, unregistered = reg.Diff([]string{"issue-contract", "submit-application"})
	assert.Empty(t, unconfigured)
	assert.Empty(t, unregistered)
}
