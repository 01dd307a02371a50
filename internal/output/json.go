/*
PURPOSE:
  Writes the analysis summary as a JSON document.

REQUIREMENTS:
  User-specified:
  - Machine-readable metrics summary with explicit null for metrics whose
    preconditions were not met.

  Implementation-discovered:
  - Indented output; the summary is read by humans as often as by tools.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Consumes: internal/model.ComprehensiveMetrics

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.

USAGE:
  err := output.WriteSummary("summary.json", metrics)

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - None specific.
*/

package output

import (
	"encoding/json"
	"os"

	"github.com/chuyishang/inference-energy/internal/model"
)

// WriteSummary writes the metrics summary to path as indented JSON.
func WriteSummary(path string, m model.ComprehensiveMetrics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
