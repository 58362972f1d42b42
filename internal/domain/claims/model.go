package claims

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jay270804/medical-claim-processing-server/internal/pipeline"
)

const (
	StatusNotProcessed = "NOT_PROCESSED"
	StatusProcessed    = "PROCESSED"
)

// ErrNotFound is returned by repositories when no claim matches.
var ErrNotFound = errors.New("claim not found")

// Claim is the durable record for one processed document. Summary fields are
// copied from the extraction result for listing and sorting.
type Claim struct {
	ID            uuid.UUID              `json:"id"`
	UserID        uuid.UUID              `json:"userId"`
	DocumentID    string                 `json:"documentId"`
	DocumentType  string                 `json:"documentType,omitempty"`
	FileName      string                 `json:"fileName,omitempty"`
	Status        string                 `json:"status"`
	ExtractedData pipeline.ExtractedData `json:"extractedData"`
	pipeline.Summary
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Submission identifies the owner and stored document a claim is built for.
type Submission struct {
	UserID       uuid.UUID
	DocumentID   string
	DocumentType string
	FileName     string
}

// ListFilter narrows and orders a user's claims.
type ListFilter struct {
	Status        string
	SortBy        string
	SortDirection string
}

// sortColumns whitelists the sortBy values a client may pass.
var sortColumns = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"serviceDate":  "service_date",
	"amount":       `CASE WHEN amount ~ '^[0-9]+(\.[0-9]+)?$' THEN amount::numeric END`,
	"patientName":  "patient_name",
	"providerName": "provider_name",
	"status":       "status",
}

// orderBy renders a safe ORDER BY expression. Unknown fields fall back to
// created_at, and anything but "asc" sorts descending.
func (f ListFilter) orderBy() string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns["createdAt"]
	}
	dir := "DESC"
	if f.SortDirection == "asc" {
		dir = "ASC"
	}
	return col + " " + dir + " NULLS LAST, id " + dir
}
