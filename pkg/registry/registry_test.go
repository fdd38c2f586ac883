// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:          "handle-message",
				DisplayName: "Handle Message",
				Category:    "conversation",
				TaskType:    "handle-message",
				Workflows:   []string{"order-conversation"},
			},
			{
				ID:          "persist-order",
				DisplayName: "Persist Order",
				Category:    "order",
				TaskType:    "persist-order",
				Workflows:   []string{"order-conversation"},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, sampleRegistry().Validate())
}

func TestValidateRejectsDuplicateID(t *testing.T) {
	reg := sampleRegistry()
	reg.Activities = append(reg.Activities, reg.Activities[0])

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate activity ID")
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	reg := sampleRegistry()
	reg.Activities[1].Category = "billing"

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestValidateRejectsActivityWithoutWorkflow(t *testing.T) {
	reg := sampleRegistry()
	reg.Activities[0].Workflows = nil

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to no workflow")
}

func TestValidateRejectsEmptyRegistry(t *testing.T) {
	reg := &ActivityRegistry{}
	assert.Error(t, reg.Validate())
}

func TestAddRejectsExistingID(t *testing.T) {
	reg := sampleRegistry()
	err := reg.Add(Activity{ID: "handle-message"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUpdateField(t *testing.T) {
	reg := sampleRegistry()

	require.NoError(t, reg.UpdateField("handle-message", "status", "verified"))
	require.NoError(t, reg.UpdateField("handle-message", "retries", "3"))

	activity := reg.FindByID("handle-message")
	require.NotNil(t, activity)
	assert.Equal(t, "verified", activity.ImplementationStatus)
	assert.Equal(t, 3, activity.Retries)
}

func TestUpdateFieldErrors(t *testing.T) {
	reg := sampleRegistry()

	assert.Error(t, reg.UpdateField("no-such-activity", "status", "verified"))
	assert.Error(t, reg.UpdateField("handle-message", "color", "red"))
	assert.Error(t, reg.UpdateField("handle-message", "retries", "many"))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	reg := sampleRegistry()
	require.NoError(t, reg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Activities, 2)
	assert.NotEmpty(t, loaded.LastUpdated)
	assert.NoError(t, loaded.Validate())
}

func TestShippedRegistryIsValid(t *testing.T) {
	reg, err := Load(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	assert.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 6)
}
