package claims

import (
	"time"

	"github.com/google/uuid"

	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
	"github.com/jay270804/medical-claim-processing-server/internal/pipeline"
)

// Assemble builds the claim for sub from a pipeline result. The id and both
// timestamps are assigned here and nowhere else. A result without surviving
// lines yields a NOT_PROCESSED claim with well-formed, empty extracted data.
func Assemble(sub Submission, result pipeline.Result, now time.Time) *Claim {
	now = now.UTC()

	data := result.Data
	if data.Lines == nil {
		data.Lines = []extraction.Observation{}
	}
	if data.Metadata.ProcessedAt.IsZero() {
		data.Metadata.ProcessedAt = now
	}

	status := StatusNotProcessed
	if len(data.Lines) > 0 {
		status = StatusProcessed
	}

	return &Claim{
		ID:            uuid.New(),
		UserID:        sub.UserID,
		DocumentID:    sub.DocumentID,
		DocumentType:  sub.DocumentType,
		FileName:      sub.FileName,
		Status:        status,
		ExtractedData: data,
		Summary:       result.Summary,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
