package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zoombook/internal/models"

	"github.com/xuri/excelize/v2"
)

// BookingsToExcel writes the bookings to a timestamped xlsx file under dir
// and returns the file path.
func BookingsToExcel(bookings []*models.Booking, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Room", "Date", "Start", "End", "Requester", "Department", "Topic", "Created by"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, headerStyle)
	}

	for row, b := range bookings {
		values := []interface{}{
			b.ID, b.Room, b.Date, b.StartTime, b.EndTime,
			b.RequesterName, b.Department, b.Topic, b.CreatedBy,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "I", 16)

	name := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	return path, nil
}
