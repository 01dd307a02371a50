package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuyishang/inference-energy/internal/model"
)

func TestAttributeEnergy_Worked(t *testing.T) {
	// Two successful requests of 10 and 30 completion tokens, 100 J active
	// => 2.5 J/token, per-request {25, 75}.
	outcomes := []model.RequestOutcome{
		{StatusCode: 200, CompletionTokens: 10},
		{StatusCode: 200, CompletionTokens: 30},
	}

	attr, err := AttributeEnergy(outcomes, 100)
	require.NoError(t, err)

	assert.Equal(t, 40, attr.TotalCompletionTokens)
	assert.InDelta(t, 2.5, attr.EnergyPerTokenJ, 1e-9)
	require.Len(t, attr.EnergyPerRequestJ, 2)
	assert.InDelta(t, 25.0, attr.EnergyPerRequestJ[0], 1e-9)
	assert.InDelta(t, 75.0, attr.EnergyPerRequestJ[1], 1e-9)
}

func TestAttributeEnergy_Reconstruction(t *testing.T) {
	outcomes := []model.RequestOutcome{
		{StatusCode: 200, CompletionTokens: 17},
		{StatusCode: 200, CompletionTokens: 3},
		{StatusCode: 200, CompletionTokens: 113},
	}

	const activeJ = 937.25
	attr, err := AttributeEnergy(outcomes, activeJ)
	require.NoError(t, err)

	assert.InDelta(t, activeJ, attr.EnergyPerTokenJ*float64(attr.TotalCompletionTokens), 1e-9)
}

func TestAttributeEnergy_FailedRequestsExcluded(t *testing.T) {
	outcomes := []model.RequestOutcome{
		{StatusCode: 200, CompletionTokens: 20},
		{StatusCode: 500, CompletionTokens: 0, Error: "server error"},
		{StatusCode: 0, Error: "timeout"},
	}

	attr, err := AttributeEnergy(outcomes, 40)
	require.NoError(t, err)
	assert.Equal(t, 20, attr.TotalCompletionTokens)
	assert.Len(t, attr.EnergyPerRequestJ, 1)
}

func TestAttributeEnergy_NoTokens(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []model.RequestOutcome
	}{
		{"empty log", nil},
		{"only failures", []model.RequestOutcome{{StatusCode: 503, Error: "overloaded"}}},
		{"successes without tokens", []model.RequestOutcome{{StatusCode: 200}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AttributeEnergy(tt.outcomes, 100)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot attribute energy")
		})
	}
}
