package export

import (
	"context"
	"fmt"
	"time"

	"zolver/internal/domain"
	"zolver/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Schedule"

// ExcelExporter renders a professional's appointment book as an .xlsx
// workbook for the admin console.
type ExcelExporter struct {
	repo   domain.AppointmentRepository
	logger *zerolog.Logger
}

func NewExcelExporter(repo domain.AppointmentRepository, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{repo: repo, logger: logger}
}

func (e *ExcelExporter) ExcelSchedule(ctx context.Context, professionalID string, start, end time.Time) ([]byte, error) {
	appointments, err := e.repo.ListForProfessionalInRange(ctx, professionalID, start, end)
	if err != nil {
		return nil, fmt.Errorf("error getting appointments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Schedule %s: %s - %s",
		professionalID, start.Format("02.01.2006"), end.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"Date", "Time", "Title", "Type", "Status", "Location", "Value"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A2", "G2", headerStyle)

	for i, a := range appointments {
		row := i + 3
		values := []any{
			a.Start.Format("02.01.2006"),
			a.Start.Format("15:04") + "-" + a.End.Format("15:04"),
			a.Title,
			typeLabel(a.Type),
			a.Status,
			a.Location,
			a.Value,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 14)
	_ = f.SetColWidth(sheetName, "C", "C", 30)
	_ = f.SetColWidth(sheetName, "D", "G", 16)

	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}

	e.logger.Info().
		Str("professional_id", professionalID).
		Int("appointments", len(appointments)).
		Msg("excel schedule exported")
	return buf.Bytes(), nil
}

func typeLabel(appointmentType string) string {
	if appointmentType == models.TypePlatformJob {
		return "Platform job"
	}
	return "External job"
}
