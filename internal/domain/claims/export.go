package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
)

// exportLimit caps the rows written to one workbook.
const exportLimit = 5000

const exportSheet = "Claims"

var exportHeaders = []string{
	"Claim ID",
	"Created At",
	"Status",
	"Patient Name",
	"Provider Name",
	"Service Date",
	"Amount",
	"Claim Type",
	"Document Type",
	"File Name",
	"Lines",
}

// ExportXLSX renders userID's claims, newest first, as an XLSX workbook.
func (s *Service) ExportXLSX(ctx context.Context, userID uuid.UUID, status string) ([]byte, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperror.Validation("", fmt.Sprintf("invalid status: %s", status))
	}
	start := s.now()

	items, _, err := s.repo.ListByUser(ctx, userID, ListFilter{Status: status}, exportLimit, 0)
	if err != nil {
		return nil, apperror.Internal("", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, apperror.Internal("", err)
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for i, c := range items {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
		write(1, c.ID.String())
		write(2, c.CreatedAt.UTC().Format(time.RFC3339))
		write(3, c.Status)
		write(4, deref(c.PatientName))
		write(5, deref(c.ProviderName))
		write(6, deref(c.ServiceDate))
		write(7, deref(c.Amount))
		write(8, deref(c.ClaimType))
		write(9, c.DocumentType)
		write(10, c.FileName)
		write(11, len(c.ExtractedData.Lines))
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 38)
	_ = f.SetColWidth(exportSheet, "B", "B", 22)
	_ = f.SetColWidth(exportSheet, "D", "E", 28)
	_ = f.SetColWidth(exportSheet, "J", "J", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.Internal("", err)
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("rows", len(items)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("claims exported")
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
