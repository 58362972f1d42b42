package claims

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jay270804/medical-claim-processing-server/internal/pipeline"
)

func TestAssemble_Processed(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 30, 0, 0, time.FixedZone("IST", 19800))
	sub := Submission{UserID: uuid.New(), DocumentID: "u/1-bill.pdf", DocumentType: "receipt", FileName: "bill.pdf"}

	c := Assemble(sub, processedResult(), now)

	if c.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if c.Status != StatusProcessed {
		t.Errorf("expected PROCESSED, got %s", c.Status)
	}
	if !c.CreatedAt.Equal(now) || !c.UpdatedAt.Equal(c.CreatedAt) {
		t.Errorf("expected both timestamps at %s, got %s/%s", now, c.CreatedAt, c.UpdatedAt)
	}
	if c.CreatedAt.Location() != time.UTC {
		t.Error("expected UTC timestamps")
	}
	if c.PatientName == nil || *c.PatientName != "Asha Rao" {
		t.Error("expected summary patientName to be attached")
	}
	if c.ProviderName != nil {
		t.Error("absent summary fields stay unset")
	}
	if c.UserID != sub.UserID || c.DocumentID != sub.DocumentID || c.FileName != "bill.pdf" {
		t.Errorf("unexpected ownership fields %+v", c)
	}
}

func TestAssemble_EmptyResult(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC)
	c := Assemble(Submission{UserID: uuid.New(), DocumentID: "d"}, pipeline.Result{}, now)

	if c.Status != StatusNotProcessed {
		t.Errorf("expected NOT_PROCESSED, got %s", c.Status)
	}
	if c.ExtractedData.Lines == nil || len(c.ExtractedData.Lines) != 0 {
		t.Error("expected empty, non-nil lines")
	}
	if !c.ExtractedData.Metadata.ProcessedAt.Equal(now) {
		t.Errorf("expected processedAt=%s, got %s", now, c.ExtractedData.Metadata.ProcessedAt)
	}
	if c.PatientName != nil || c.Amount != nil || c.ServiceDate != nil || c.ProviderName != nil || c.ClaimType != nil {
		t.Error("expected no summary fields")
	}
}

func TestAssemble_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := Assemble(Submission{}, pipeline.Result{}, now)
	b := Assemble(Submission{}, pipeline.Result{}, now)
	if a.ID == b.ID {
		t.Error("expected distinct ids")
	}
}
