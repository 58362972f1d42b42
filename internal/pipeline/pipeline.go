package pipeline

import (
	"time"

	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
)

// Process normalizes raw in its original order, drops what the confidence
// filter rejects and resolves the summary fields from what survives.
func Process(raw []extraction.Observation, threshold float64, now time.Time) Result {
	normalized := Normalize(raw)
	kept, stats := Filter(normalized, threshold)

	return Result{
		Data: ExtractedData{
			Lines: kept,
			Metadata: Metadata{
				ProcessedAt:         now.UTC(),
				ConfidenceThreshold: threshold,
				TotalLines:          stats.Total,
				ProcessedLines:      stats.Kept,
				FilteredLines:       stats.Dropped,
				BatchSize:           BatchSize,
			},
		},
		Summary: Resolve(kept, threshold),
		Stats:   stats,
	}
}
