package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON_RoundTrip(t *testing.T) {
	ctx := map[string]interface{}{"industry": "plumbing", "employees": 12.0}

	value, err := NewJSON(ctx)
	require.NoError(t, err)
	assert.False(t, value.IsEmpty())

	var decoded map[string]interface{}
	require.NoError(t, value.Decode(&decoded))
	assert.Equal(t, ctx, decoded)
}

func TestNewJSON_NilIsNull(t *testing.T) {
	value, err := NewJSON(nil)
	require.NoError(t, err)
	assert.True(t, value.IsEmpty())

	driverValue, err := value.Value()
	require.NoError(t, err)
	assert.Nil(t, driverValue)
}

func TestGeneratedAppStateHelpers(t *testing.T) {
	appID := "app-1"

	tests := []struct {
		name      string
		app       GeneratedApp
		startable bool
		succeeded bool
	}{
		{"pending", GeneratedApp{Status: GenerationPending}, true, false},
		{"generating", GeneratedApp{Status: GenerationGenerating}, true, false},
		{"running with app", GeneratedApp{Status: GenerationRunning, AppID: &appID}, false, true},
		{"running without app", GeneratedApp{Status: GenerationRunning}, false, false},
		{"failed", GeneratedApp{Status: GenerationFailed}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.startable, tt.app.Startable())
			assert.Equal(t, tt.succeeded, tt.app.Succeeded())
		})
	}
}
