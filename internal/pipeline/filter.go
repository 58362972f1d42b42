package pipeline

import (
	"strings"

	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
)

// FilterStats counts what the confidence filter saw.
type FilterStats struct {
	Total   int
	Kept    int
	Dropped int
}

// Filter keeps observations with a non-empty value that is not a lone
// bracket or brace and whose confidence is at least threshold. Order is
// preserved.
func Filter(lines []extraction.Observation, threshold float64) ([]extraction.Observation, FilterStats) {
	kept := make([]extraction.Observation, 0, len(lines))
	for _, o := range lines {
		if isJunk(o.Value) || o.Confidence < threshold {
			continue
		}
		kept = append(kept, o)
	}
	return kept, FilterStats{
		Total:   len(lines),
		Kept:    len(kept),
		Dropped: len(lines) - len(kept),
	}
}

func isJunk(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "[", "]", "{", "}":
		return true
	}
	return false
}
