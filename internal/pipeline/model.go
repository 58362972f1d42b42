// Package pipeline reduces the raw observations read off a document into a
// normalized, filtered sequence plus the summary fields derived from it.
// Every function here is total: no input makes it fail.
package pipeline

import (
	"time"

	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
)

const (
	DefaultThreshold = 0.7
	// BatchSize is reported in metadata for compatibility with stored
	// records; extraction is a single pass.
	BatchSize = 10
)

// Amount subtypes assigned by the normalizer.
const (
	AmountMain     = "amount"
	AmountSubtotal = "subtotal_amount"
	AmountDiscount = "discount_amount"
	AmountTax      = "tax_amount"
	AmountItem     = "item_amount"
	AmountOther    = "other_amount"
)

type Metadata struct {
	ProcessedAt         time.Time `json:"processedAt"`
	ConfidenceThreshold float64   `json:"confidenceThreshold"`
	TotalLines          int       `json:"totalLines"`
	ProcessedLines      int       `json:"processedLines"`
	FilteredLines       int       `json:"filteredLines"`
	BatchSize           int       `json:"batchSize,omitempty"`
}

// ExtractedData is the per-document result stored on a claim.
type ExtractedData struct {
	Lines    []extraction.Observation `json:"lines"`
	Metadata Metadata                 `json:"metadata"`
}

// EmptyExtractedData is the well-formed value used when nothing was
// extracted.
func EmptyExtractedData(now time.Time) ExtractedData {
	return ExtractedData{
		Lines:    []extraction.Observation{},
		Metadata: Metadata{ProcessedAt: now.UTC()},
	}
}

// Summary holds the best candidate per summary field. Nil means no
// observation qualified.
type Summary struct {
	PatientName  *string `json:"patientName,omitempty"`
	ProviderName *string `json:"providerName,omitempty"`
	ServiceDate  *string `json:"serviceDate,omitempty"`
	Amount       *string `json:"amount,omitempty"`
	ClaimType    *string `json:"claimType,omitempty"`
}

// Result is the output of Process.
type Result struct {
	Data    ExtractedData `json:"extractedData"`
	Summary Summary       `json:"summary"`
	Stats   FilterStats   `json:"-"`
}
