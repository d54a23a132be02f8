package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rentease/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Lister is the projection surface the exporter reads from.
type Lister interface {
	ListByStatus(ctx context.Context, status models.Status) ([]*models.BookingView, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.BookingView, error)
}

// Exporter writes booking audit spreadsheets for administrators.
type Exporter struct {
	bookings Lister
	dir      string
	logger   *zerolog.Logger
}

func NewExporter(bookings Lister, dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{bookings: bookings, dir: dir, logger: logger}
}

var columns = []string{"ID", "Property", "Tenant", "Landlord", "Start", "End", "Status", "Notes", "Created"}

// BookingsByStatus dumps the queue for one status into an xlsx file and
// returns the file path.
func (e *Exporter) BookingsByStatus(ctx context.Context, status models.Status) (string, error) {
	views, err := e.bookings.ListByStatus(ctx, status)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}

	title := fmt.Sprintf("Booking queue: %s (%s)", status, time.Now().Format("02.01.2006"))
	fileName := fmt.Sprintf("bookings_%s_%s.xlsx", status, time.Now().Format("2006-01-02"))
	return e.writeSheet(title, fileName, views)
}

// BookingsByDateRange dumps bookings whose start date falls inside the period.
func (e *Exporter) BookingsByDateRange(ctx context.Context, start, end time.Time) (string, error) {
	views, err := e.bookings.ListByDateRange(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}

	title := fmt.Sprintf("Bookings %s — %s", start.Format("02.01.2006"), end.Format("02.01.2006"))
	fileName := fmt.Sprintf("bookings_%s_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return e.writeSheet(title, fileName, views)
}

func (e *Exporter) writeSheet(title, fileName string, views []*models.BookingView) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", title)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, col)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for row, v := range views {
		values := []any{
			v.ID, v.PropertyTitle, v.TenantName, v.LandlordName,
			v.StartDate.Format("2006-01-02"), v.EndDate.Format("2006-01-02"),
			v.Status.String(), v.Notes, v.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, val)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "I", 20)

	lastCol, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.MergeCell(sheetName, "A1", lastCol)
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(views)).Msg("bookings export created")
	return filePath, nil
}
