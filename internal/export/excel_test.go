package export

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"zolver/internal/database"
	"zolver/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newExportFixture(t *testing.T) (*ExcelExporter, *database.DB) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.New(io.Discard)
	return NewExcelExporter(db, &logger), db
}

func TestExcelSchedule(t *testing.T) {
	exporter, db := newExportFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateAppointment(ctx, &models.Appointment{
		ID:             "a1",
		ProfessionalID: "pro-1",
		Title:          "Pipe repair",
		Start:          start,
		End:            start.Add(2 * time.Hour),
		Type:           models.TypePlatformJob,
		Location:       "Rua das Flores, 123",
		Value:          150,
		Status:         models.StatusScheduled,
	}))
	require.NoError(t, db.CreateAppointment(ctx, &models.Appointment{
		ID:             "a2",
		ProfessionalID: "pro-1",
		Title:          "Garden maintenance",
		Start:          start.Add(24 * time.Hour),
		End:            start.Add(26 * time.Hour),
		Type:           models.TypeExternalJob,
		Status:         models.StatusScheduled,
	}))

	data, err := exporter.ExcelSchedule(ctx, "pro-1", start.Add(-time.Hour), start.Add(48*time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	require.Len(t, rows, 4) // title, header, 2 data rows

	assert.Equal(t, "Date", rows[1][0])
	assert.Equal(t, "06.04.2026", rows[2][0])
	assert.Equal(t, "10:00-12:00", rows[2][1])
	assert.Equal(t, "Pipe repair", rows[2][2])
	assert.Equal(t, "Platform job", rows[2][3])
	assert.Equal(t, "Garden maintenance", rows[3][2])
	assert.Equal(t, "External job", rows[3][3])
}

func TestExcelScheduleEmptyRange(t *testing.T) {
	exporter, _ := newExportFixture(t)

	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	data, err := exporter.ExcelSchedule(context.Background(), "pro-1", start, start.AddDate(0, 1, 0))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	assert.Len(t, rows, 2) // title and header only
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "Platform job", typeLabel(models.TypePlatformJob))
	assert.Equal(t, "External job", typeLabel(models.TypeExternalJob))
	assert.Equal(t, "External job", typeLabel("something_else"))
}
