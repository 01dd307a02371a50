package analysis

import (
	"fmt"

	"github.com/chuyishang/inference-energy/internal/model"
)

// AttributeEnergy allocates active energy to successful requests
// proportional to their completion token counts. It fails when there are
// no tokens to attribute energy to.
func AttributeEnergy(outcomes []model.RequestOutcome, activeEnergyJ float64) (model.TokenAttribution, error) {
	var totalTokens int
	for _, r := range outcomes {
		if r.Success() {
			totalTokens += r.CompletionTokens
		}
	}
	if totalTokens <= 0 {
		return model.TokenAttribution{}, fmt.Errorf("no completion tokens recorded; cannot attribute energy")
	}

	perToken := activeEnergyJ / float64(totalTokens)

	var perRequest []float64
	for _, r := range outcomes {
		if r.Success() {
			perRequest = append(perRequest, perToken*float64(r.CompletionTokens))
		}
	}

	return model.TokenAttribution{
		TotalCompletionTokens: totalTokens,
		EnergyPerTokenJ:       perToken,
		EnergyPerRequestJ:     perRequest,
	}, nil
}
